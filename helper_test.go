package kryptos

import (
	"encoding/json"
	"fmt"
	"testing"
)

func eth() Asset {
	return Asset{TokenID: "eth", Symbol: "ETH", PublicName: "Ethereum", ChainID: "ethereum", Standard: "native", Category: "layer1", Type: AssetCrypto, ProviderID: map[string]string{"coingecko": "ethereum"}}
}

func usdc() Asset {
	return Asset{TokenID: "usdc", Symbol: "USDC", PublicName: "USD Coin", ChainID: "ethereum", ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Standard: "ERC-20", Category: "stablecoin", Type: AssetCrypto}
}

func wallet(id string) *AccountType {
	return &AccountType{Provider: "metamask", WalletID: id}
}

func usd(price float64) PriceModel {
	return PriceModel{Price: price, BaseCurrency: "USD", Timestamp: 1704067200, Source: "coingecko"}
}

// buy is an incoming ledger entry of q ETH at price into account.
func buy(tx string, ts int64, q, price float64, account string) LedgerEntry {
	return LedgerEntry{TransactionID: tx, Timestamp: ts, Asset: eth(), Quantity: Q(q), Price: usd(price), Type: Incoming, ToAccount: wallet(account)}
}

// sell is an outgoing ledger entry of q ETH at price from account.
func sell(tx string, ts int64, q, price float64, account string) LedgerEntry {
	return LedgerEntry{TransactionID: tx, Timestamp: ts, Asset: eth(), Quantity: Q(q), Price: usd(price), Type: Outgoing, FromAccount: wallet(account)}
}

// chain numbers the entries and fills in their running balances.
func chain(entries ...LedgerEntry) []LedgerEntry {
	balances := make(Balances)
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			e.ID = fmt.Sprintf("l%d", i+1)
		}
		key := balanceKey(e.Asset, e.Account())
		e.BeforeBalance = balances[key]
		e.AfterBalance = e.BeforeBalance.Add(e.Delta())
		balances[key] = e.AfterBalance
	}
	return entries
}

// sampleTransaction receives 5 ETH in wallet w1 and pays a fee from it, with
// its ledger derived.
func sampleTransaction() Transaction {
	tx := Transaction{
		ID:         "tx1",
		PlatformID: "0xabc",
		IncomingAssets: []IncomingTransfer{{
			AssetTransfer: AssetTransfer{Asset: eth(), Quantity: Q(5), Price: usd(2000)},
			ToAccount:     wallet("w1"),
			PlatformID:    "0xabc",
		}},
		Fee: []FeeTransfer{{
			AssetTransfer: AssetTransfer{Asset: eth(), Quantity: MustQ("0.01"), Price: usd(2000)},
			FeeAccount:    wallet("w1"),
		}},
		Timestamp: 1704067200,
		Label:     "deposit",
		Metadata:  Metadata{ImportSource: ImportManual, IsManual: true},
		Tags:      []string{"onramp"},
	}
	tx.Ledger, _ = DeriveLedger(tx, nil)
	return tx
}

// edit marshals v, applies change to its top level keys and returns the JSON.
func edit(t *testing.T, v json.Marshaler, change func(map[string]json.RawMessage)) []byte {
	t.Helper()
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() failed: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	change(m)
	data, err = json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	return data
}

// problemStrings lists the problems of err, without their details.
func problemStrings(err error) []string {
	var list []string
	for _, p := range Problems(err) {
		s := string(p.Kind)
		if p.Name != "" {
			s += fmt.Sprintf("(%q)", p.Name)
		}
		list = append(list, s+" at "+p.Path)
	}
	return list
}

// punk is a CryptoPunks NFT asset with its collection snapshot.
func punk() Asset {
	return Asset{
		TokenID:         "punks-7",
		Symbol:          "PUNK",
		PublicName:      "CryptoPunk #7",
		ChainID:         "ethereum",
		ContractAddress: "0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB",
		Standard:        "ERC-721",
		Category:        "collectible",
		Type:            AssetNFT,
		InnerID:         "7",
		Collection: &NftCollection{
			ID:              "punks",
			Name:            "CryptoPunks",
			Chains:          []string{"ethereum"},
			MarketplaceURLs: []string{"https://opensea.io/collection/cryptopunks"},
			TotalQuantity:   Q(10000),
		},
	}
}
