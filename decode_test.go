package kryptos

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeTransferMissingAccount(t *testing.T) {
	in := IncomingTransfer{
		AssetTransfer: AssetTransfer{Asset: eth(), Quantity: MustQ("1.5"), Price: usd(3000)},
		ToAccount:     wallet("w1"),
		PlatformID:    "0xabc",
	}
	data := edit(t, in, func(m map[string]json.RawMessage) { delete(m, "toAccount") })

	_, err := DecodeTransfer(data)
	want := []string{`MissingField("toAccount") at toAccount`}
	if diff := cmp.Diff(want, problemStrings(err)); diff != "" {
		t.Errorf("DecodeTransfer() problems mismatch (-want +got):\n%s", diff)
	}

	in.ToAccount = nil
	if err := in.Validate(); !HasProblem(err, MissingField, "toAccount") {
		t.Errorf("Validate() = %v, want MissingField(toAccount)", err)
	}
}

func TestDecodeTransferDispatch(t *testing.T) {
	base := AssetTransfer{Asset: eth(), Quantity: MustQ("0.000000000000000001"), Price: usd(3000)}
	tests := []Transfer{
		IncomingTransfer{AssetTransfer: base, ToAccount: wallet("w1"), PlatformID: "p"},
		OutgoingTransfer{AssetTransfer: base, FromAccount: wallet("w1"), ToAccount: wallet("w2"), InternalLabel: "rebalance", PlatformID: "p"},
		FeeTransfer{AssetTransfer: base, FeeAccount: wallet("w1")},
	}
	for _, want := range tests {
		t.Run(string(want.Type()), func(t *testing.T) {
			data, err := want.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}
			got, err := DecodeTransfer(data)
			if err != nil {
				t.Fatalf("DecodeTransfer() failed: %v", err)
			}
			if got.Type() != want.Type() {
				t.Errorf("Type() = %q, want %q", got.Type(), want.Type())
			}
			if q := got.Base().Quantity; !q.Equal(base.Quantity) {
				t.Errorf("quantity = %s, want %s", q, base.Quantity)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestDecodeTransferTypeMismatch(t *testing.T) {
	fee := FeeTransfer{AssetTransfer: AssetTransfer{Asset: eth(), Quantity: Q(1), Price: usd(1)}, FeeAccount: wallet("w1")}
	data := edit(t, fee, func(m map[string]json.RawMessage) { m["type"] = json.RawMessage(`"incoming"`) })

	var got FeeTransfer
	err := json.Unmarshal(data, &got)
	if !HasProblem(err, InvariantViolation, "TransferTypeMismatch") {
		t.Errorf("Unmarshal() = %v, want TransferTypeMismatch", err)
	}
}

func TestNftRequiresCollection(t *testing.T) {
	punk := Asset{TokenID: "punks-7", Symbol: "PUNK", PublicName: "CryptoPunk #7", ChainID: "ethereum", Type: AssetNFT, InnerID: "7"}
	if err := punk.Validate(); !HasProblem(err, InvariantViolation, "NftRequiresCollection") {
		t.Errorf("Validate() = %v, want NftRequiresCollection", err)
	}

	data, err := punk.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeEntity(KindAsset, data); err != nil {
		t.Errorf("DecodeEntity() = %v, the collection is optional on the wire", err)
	}
	if _, err := ParseEntity(KindAsset, data); !HasProblem(err, InvariantViolation, "NftRequiresCollection") {
		t.Errorf("ParseEntity() = %v, want NftRequiresCollection", err)
	}
}

func TestDecodePortfolioUnknownCategory(t *testing.T) {
	_, err := DecodePortfolio([]byte(`{"category":"exotic"}`))
	want := []string{`UnknownVariant("exotic") at category`}
	if diff := cmp.Diff(want, problemStrings(err)); diff != "" {
		t.Errorf("DecodePortfolio() problems mismatch (-want +got):\n%s", diff)
	}

	e, err := DecodeEntity(KindPortfolio, []byte(`{"category":"exotic"}`))
	if e != nil {
		t.Errorf("DecodeEntity() = %v, want no portfolio", e)
	}
	if !HasProblem(err, UnknownVariant, "exotic") {
		t.Errorf("DecodeEntity() = %v, want UnknownVariant(exotic)", err)
	}
}

func TestDecodeProblems(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{
			name: "not an object",
			data: `[1, 2]`,
			want: []string{`MalformedJSON at `},
		},
		{
			name: "wrong type",
			data: `{"price":"high","baseCurrency":"USD","timestamp":1,"source":"s"}`,
			want: []string{`MalformedJSON at price`},
		},
		{
			name: "everything missing",
			data: `{}`,
			want: []string{
				`MissingField("price") at price`,
				`MissingField("baseCurrency") at baseCurrency`,
				`MissingField("timestamp") at timestamp`,
				`MissingField("source") at source`,
			},
		},
		{
			name: "null is missing",
			data: `{"price":1,"baseCurrency":null,"timestamp":1,"source":"s"}`,
			want: []string{`MissingField("baseCurrency") at baseCurrency`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PriceModel
			err := json.Unmarshal([]byte(tt.data), &p)
			if diff := cmp.Diff(tt.want, problemStrings(err)); diff != "" {
				t.Errorf("problems mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		problem string
	}{
		{raw: `"1.5"`, want: "1.5"},
		{raw: `1.5`, want: "1.5"},
		{raw: `"0.000000000000000001"`, want: "0.000000000000000001"},
		{raw: `123456789012345678901234567890`, want: "123456789012345678901234567890"},
		{raw: `"1,5"`, problem: `InvalidNumericString("1,5") at quantity`},
		{raw: `"abc"`, problem: `InvalidNumericString("abc") at quantity`},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in := FeeTransfer{AssetTransfer: AssetTransfer{Asset: eth(), Quantity: Q(1), Price: usd(1)}, FeeAccount: wallet("w1")}
			data := edit(t, in, func(m map[string]json.RawMessage) { m["quantity"] = json.RawMessage(tt.raw) })

			got, err := DecodeTransfer(data)
			if tt.problem != "" {
				if diff := cmp.Diff([]string{tt.problem}, problemStrings(err)); diff != "" {
					t.Errorf("problems mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeTransfer() failed: %v", err)
			}
			if q := got.Base().Quantity.String(); q != tt.want {
				t.Errorf("quantity = %s, want %s", q, tt.want)
			}
		})
	}
}

func TestDecodeTransactionPaths(t *testing.T) {
	tx := sampleTransaction()
	tx.Ledger = nil
	tx.IncomingAssets[0].ToAccount = nil
	tx.OutgoingAssets = []OutgoingTransfer{{
		AssetTransfer: AssetTransfer{Asset: eth(), Quantity: MustQ("2.5"), Price: usd(2000)},
		FromAccount:   wallet("w1"),
		PlatformID:    "0xabc",
	}}
	data, err := tx.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	data = []byte(strings.Replace(string(data), `"quantity":"2.5"`, `"quantity":"2.5.1"`, 1))

	_, err = DecodeEntity(KindTransaction, data)
	want := []string{
		`MissingField("toAccount") at incomingAssets[0].toAccount`,
		`InvalidNumericString("2.5.1") at outgoingAssets[0].quantity`,
	}
	if diff := cmp.Diff(want, problemStrings(err)); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}
}

func TestProblemsUnwrap(t *testing.T) {
	_, err := DecodePortfolio([]byte(`{"category":"exotic","metadata":3}`))
	wrapped := fmt.Errorf("reading holdings.json: %w", err)

	if got, want := len(Problems(wrapped)), len(Problems(err)); got != want || got == 0 {
		t.Errorf("Problems(wrapped) found %d problems, want %d", got, want)
	}
	if !HasProblem(wrapped, UnknownVariant, "exotic") {
		t.Errorf("HasProblem(wrapped) = false, want true")
	}
	var p *Problem
	if !errors.As(wrapped, &p) {
		t.Errorf("errors.As(wrapped, *Problem) = false, want true")
	}
}

func TestProblemError(t *testing.T) {
	p := &Problem{Kind: InvariantViolation, Path: "ledger[0].afterBalance", Name: "BalanceMismatch", Detail: "1 is not 2"}
	want := `InvariantViolation("BalanceMismatch") at ledger[0].afterBalance: 1 is not 2`
	if got := p.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
