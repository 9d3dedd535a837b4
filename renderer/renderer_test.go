package renderer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/etnz/kryptos"
)

var eth = kryptos.Asset{TokenID: "eth", Symbol: "ETH", Type: kryptos.AssetCrypto}

func TestHoldingsMarkdown(t *testing.T) {
	h := kryptos.Holding{
		Asset:         eth,
		TotalQuantity: kryptos.Q(3),
		CostBasis:     kryptos.Q(6000),
		MarketValue:   kryptos.Q(10500),
		UnrealizedPnL: kryptos.Q(4500),
		Distribution: []kryptos.AssetDistribution{
			{Quantity: kryptos.Q(1), Account: kryptos.AccountType{Provider: "metamask", WalletID: "w1", Alias: "hot"}},
			{Quantity: kryptos.Q(2), Account: kryptos.AccountType{Provider: "ledger", WalletID: "w2", Alias: "cold"}},
		},
	}.Allocate()

	got := HoldingsMarkdown([]kryptos.Holding{h}, kryptos.FIFO, "USD")
	for _, want := range []string{
		"Lot policy: fifo. Values in USD.",
		"| ETH | 3 | $6,000.00 | $10,500.00 | +$4,500.00 |",
		"## ETH by account",
		"| cold | 2 | 66.67% |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HoldingsMarkdown() does not contain %q:\n%s", want, got)
		}
	}

	h.Distribution = h.Distribution[:1]
	if got := HoldingsMarkdown([]kryptos.Holding{h}, kryptos.FIFO, "USD"); strings.Contains(got, "by account") {
		t.Errorf("a single account holding has a distribution section:\n%s", got)
	}
}

func TestGainsMarkdown(t *testing.T) {
	btc := kryptos.Asset{TokenID: "btc", Symbol: "BTC", Type: kryptos.AssetCrypto}
	lots := []kryptos.TaxPnL{
		{Asset: eth, Quantity: kryptos.Q(1), Profit: kryptos.Q(100)},
		{Asset: btc, Quantity: kryptos.Q(1), Profit: kryptos.Q(-300)},
		{Asset: eth, Quantity: kryptos.Q(1), Profit: kryptos.Q(50)},
	}
	got := GainsMarkdown(lots, kryptos.HIFO, "USD")
	want := "# Realized gains\n\nLot policy: hifo.\n\n" +
		"| Asset | Profit |\n" +
		"|:------|-------:|\n" +
		"| ETH | +$150.00 |\n" +
		"| BTC | -$300.00 |\n" +
		"| **Total** | **-$150.00** |\n"
	if got != want {
		t.Errorf("GainsMarkdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestConditionalBlock(t *testing.T) {
	var b bytes.Buffer
	ConditionalBlock(&b, func(w io.Writer) bool { io.WriteString(w, "dropped"); return false })
	ConditionalBlock(&b, func(w io.Writer) bool { io.WriteString(w, "kept"); return true })
	if got := b.String(); got != "kept" {
		t.Errorf("got %q, want %q", got, "kept")
	}
}

func TestNFTsMarkdown(t *testing.T) {
	price := kryptos.PriceModel{Price: 150000, BaseCurrency: "USD"}
	balances := []kryptos.NFTBalance{
		{TokenID: "7", Name: "CryptoPunk #7", ErcType: "ERC721", Amount: kryptos.Q(1), Price: price, Collection: kryptos.Collection{Name: "CryptoPunks"}},
		{TokenID: "12", ContractAddress: "0xabc", ErcType: "ERC1155", Amount: kryptos.Q(3)},
	}
	got := NFTsMarkdown(balances, 2)
	for _, want := range []string{
		"## CryptoPunks\n",
		"| 7 | CryptoPunk #7 | ERC721 | 1 | $150,000.00 |",
		"## 0xabc\n",
		"2 spam balances hidden.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("NFTsMarkdown() missing %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(NFTsMarkdown(balances, 0), "hidden") {
		t.Error("NFTsMarkdown() mentions hidden balances when none were")
	}
}
