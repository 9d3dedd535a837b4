package kryptos

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLedgerJSONL(t *testing.T) {
	want := chain(buy("t1", 1, 5, 2000, "w1"), sell("t2", 2, 2, 3000, "w1"))
	var b strings.Builder
	if err := EncodeLedgerEntries(&b, want); err != nil {
		t.Fatalf("EncodeLedgerEntries() failed: %v", err)
	}
	if n := strings.Count(b.String(), "\n"); n != 2 {
		t.Errorf("got %d lines, want 2", n)
	}

	got, err := DecodeLedgerEntries(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("DecodeLedgerEntries() failed: %v", err)
	}
	if diff := cmp.Diff(want, got, equateQuantities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionsJSONL(t *testing.T) {
	tx := sampleTransaction()
	tx.RawTrx = []byte(`{"hash":"0xabc","logs":[1,2]}`)
	var b strings.Builder
	if err := EncodeTransactions(&b, []Transaction{tx, tx}); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTransactions(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("DecodeTransactions() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if diff := cmp.Diff(tx, got[1], equateQuantities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if err := got[0].Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestTransactionRawTrxAlwaysWritten(t *testing.T) {
	tx := sampleTransaction()
	data, err := tx.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), `"rawTrx":null}`) {
		t.Errorf("MarshalJSON() = %s, want a null rawTrx last", data)
	}
	got, err := ParseEntity(KindTransaction, data)
	if err != nil {
		t.Fatalf("ParseEntity() failed: %v", err)
	}
	if raw := got.(Transaction).RawTrx; raw != nil {
		t.Errorf("decoded rawTrx = %s, want nil", raw)
	}
}

func TestDecodeJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"provider":"metamask","walletId":"w1"}`,
		``,
		`{"provider":"ledger"}`,
		`not json`,
		`   `,
		`{"walletId":"w3"}`,
	}, "\n")

	got, err := DecodeJSONL(KindAccount, strings.NewReader(input))
	want := []string{
		`MalformedJSON at [3]`,
		`MissingField("provider") at [5].provider`,
	}
	if diff := cmp.Diff(want, problemStrings(err)); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}
	if len(got) != 3 {
		t.Errorf("got %d accounts, want the 3 objects", len(got))
	}
	if err := got[1].Validate(); !HasProblem(err, InvariantViolation, "UnresolvableAccount") {
		t.Errorf("Validate() = %v, want UnresolvableAccount", err)
	}

	if _, err := DecodeJSONL("wallet", strings.NewReader(input)); err == nil {
		t.Errorf("DecodeJSONL(wallet) succeeded, want an unknown kind error")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(strings.ToUpper(string(k)))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
		if _, err := entityDecoder(k); err != nil {
			t.Errorf("kind %q has no decoder: %v", k, err)
		}
	}
	if _, err := ParseKind("wallet"); err == nil {
		t.Errorf("ParseKind(wallet) succeeded, want an error")
	}
}

func TestValidateDispatch(t *testing.T) {
	tests := []struct {
		v       any
		wantErr bool
	}{
		{eth(), false},
		{*wallet("w1"), false},
		{usd(1), false},
		{sampleTransaction(), false},
		{vestingPlan(), false},
		{ethCall(), false},
		{lendingHolding(), false},
		{punkBalance(), false},
		{AccountType{Provider: "binance"}, true},
		{42, true},
		{nil, true},
	}
	for _, tt := range tests {
		if err := Validate(tt.v); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%T) = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
	}
}
