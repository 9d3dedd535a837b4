package kryptos

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an amount in a base currency, for display. Base currencies are
// ISO 4217 codes or crypto tickers.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns value units of currency.
func M[T float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// Worth returns the value of quantity units at price p, as Money.
func (p PriceModel) Worth(quantity Quantity) Money {
	return Money{value: p.Value(quantity).value, cur: p.BaseCurrency}
}

// In returns q as an amount of currency.
func (q Quantity) In(currency string) Money { return Money{value: q.value, cur: currency} }

// String formats m with its currency conventions: symbol, separators and
// fraction digits. Crypto amounts print their full digits and their ticker.
func (m Money) String() string {
	c := money.GetCurrency(m.cur)
	if c == nil {
		return m.value.String() + " " + m.cur
	}
	dec := m.value.Shift(int32(c.Fraction)).Round(0)
	return c.Formatter().Format(dec.IntPart())
}

// SignedString is String with a + for positive amounts, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string     { return m.cur }
func (m Money) Amount() Quantity     { return Quantity{value: m.value} }
func (m Money) IsZero() bool         { return m.value.IsZero() }
func (m Money) Equal(n Money) bool   { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) Neg() Money           { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Add(n Money) Money    { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money    { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }
func (m Money) Mul(q Quantity) Money { return Money{value: m.value.Mul(q.value), cur: m.cur} }

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}
