package kryptos

import (
	"regexp"

	"github.com/Rhymond/go-money"
)

// PriceModel is one price observation. It is a value: every consumer embeds
// its own copy, prices being point-in-time facts.
type PriceModel struct {
	Price        float64
	BaseCurrency string // e.g. USD
	Timestamp    int64  // unix seconds
	Source       string // e.g. coingecko
}

// tickerRegex accepts crypto tickers used as quote currency (ETH, USDC, WBTC).
var tickerRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// ValidateCurrency accepts ISO 4217 codes known to go-money and upper-case
// crypto tickers.
func ValidateCurrency(code string) bool {
	if money.GetCurrency(code) != nil {
		return true
	}
	return tickerRegex.MatchString(code)
}

// Value returns the value of quantity units at this price.
func (p PriceModel) Value(quantity Quantity) Quantity {
	return quantity.MulFloat(p.Price)
}

// WithPrice returns a copy of p at a new price.
func (p PriceModel) WithPrice(price float64) PriceModel {
	p.Price = price
	return p
}

func (p PriceModel) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("price", p.Price)
	w.Append("baseCurrency", p.BaseCurrency)
	w.Append("timestamp", p.Timestamp)
	w.Append("source", p.Source)
	return w.MarshalJSON()
}

func (p *PriceModel) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeWith(data, decodePrice)
	return err
}

func decodePrice(f *fields) PriceModel {
	return PriceModel{
		Price:        f.Float("price"),
		BaseCurrency: f.String("baseCurrency"),
		Timestamp:    f.Int("timestamp"),
		Source:       f.String("source"),
	}
}

// Validate checks p and returns every problem found.
func (p PriceModel) Validate() error {
	r := newReport()
	p.check(r)
	return r.err()
}

func (p PriceModel) check(r report) {
	if p.BaseCurrency == "" {
		r.missing("baseCurrency")
	} else if !ValidateCurrency(p.BaseCurrency) {
		r.violationAt("baseCurrency", "UnknownCurrency", "%q is neither an ISO 4217 code nor a ticker", p.BaseCurrency)
	}
	if p.Price < 0 {
		r.violationAt("price", "NegativePrice", "price is %v", p.Price)
	}
}

func checkPrice(r report, key string, p *PriceModel) {
	if p != nil {
		p.check(r.at(key))
	}
}
