package kryptos

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Quantity is an arbitrary precision amount: token quantities, balances,
// supply totals and values in a base currency.
//
// On the wire a Quantity is a decimal string, so that amounts from chains
// with 18 decimals survive the trip. Decoding also accepts a bare JSON number,
// read from its literal text and never through a float64.
type Quantity struct {
	value decimal.Decimal
}

// Q returns the Quantity for value.
func Q[T float64 | int | int64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses a decimal string such as "0.000000000000000001".
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("%q is not a decimal number", s)
	}
	return Quantity{value: d}, nil
}

// MustQ parses s and panics on failure. Meant for tests and constants.
func MustQ(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Equal(p Quantity) bool              { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool           { return q.value.LessThan(p.value) }
func (q Quantity) LessThanOrEqual(p Quantity) bool    { return q.value.LessThanOrEqual(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool        { return q.value.GreaterThan(p.value) }
func (q Quantity) GreaterThanOrEqual(p Quantity) bool { return q.value.GreaterThanOrEqual(p.value) }
func (q Quantity) Add(p Quantity) Quantity            { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity            { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity            { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) Div(p Quantity) Quantity            { return Quantity{value: q.value.Div(p.value)} }
func (q Quantity) Neg() Quantity                      { return Quantity{value: q.value.Neg()} }
func (q Quantity) Abs() Quantity                      { return Quantity{value: q.value.Abs()} }
func (q Quantity) IsNegative() bool                   { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool                   { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                       { return q.value.IsZero() }
func (q Quantity) String() string                     { return q.value.String() }

// MulFloat multiplies q by a display value such as a price.
func (q Quantity) MulFloat(f float64) Quantity {
	return Quantity{value: q.value.Mul(decimal.NewFromFloat(f))}
}

// Float returns an approximation of q, for ratios and display only.
func (q Quantity) Float() float64 { return q.value.InexactFloat64() }

// Decimal exposes the underlying decimal.
func (q Quantity) Decimal() decimal.Decimal { return q.value }

// MarshalJSON writes q as a decimal string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.value.String() + `"`), nil
}

// UnmarshalJSON reads a decimal string or a JSON number.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	text := bytes.Trim(bytes.TrimSpace(data), `"`)
	d, err := decimal.NewFromString(string(text))
	if err != nil {
		return fmt.Errorf("%s is not a decimal number", data)
	}
	q.value = d
	return nil
}

// sumQuantities adds all quantities up.
func sumQuantities(qs ...Quantity) Quantity {
	var total Quantity
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}
