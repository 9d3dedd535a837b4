package kryptos

import (
	"fmt"
	"strings"
)

// Lot is an open acquisition of an asset, not yet disposed of.
type Lot struct {
	Timestamp     int64
	TransactionID string
	Quantity      Quantity
	Cost          Quantity // total cost of the lot, in base currency
	Account       *AccountType
}

// UnitCost is the cost of one unit of the lot.
func (l Lot) UnitCost() Quantity {
	if l.Quantity.IsZero() {
		return Quantity{}
	}
	return l.Cost.Div(l.Quantity)
}

// take splits q units off the lot and returns the taken part and the rest.
func (l Lot) take(q Quantity) (taken, rest Lot) {
	if q.GreaterThanOrEqual(l.Quantity) {
		return l, Lot{}
	}
	taken, rest = l, l
	taken.Quantity = q
	taken.Cost = l.Cost.Mul(q).Div(l.Quantity)
	rest.Quantity = l.Quantity.Sub(q)
	rest.Cost = l.Cost.Sub(taken.Cost)
	return taken, rest
}

// LotPolicy selects which open lot a disposal consumes next. The aggregation
// has no default policy: the caller always chooses one.
type LotPolicy interface {
	// Next returns the index in open of the lot to consume. open is never
	// empty and is sorted by acquisition time.
	Next(open []Lot) int
	String() string
}

type fifo struct{}
type lifo struct{}
type hifo struct{}

var (
	// FIFO disposes of the oldest lot first.
	FIFO LotPolicy = fifo{}
	// LIFO disposes of the most recent lot first.
	LIFO LotPolicy = lifo{}
	// HIFO disposes of the lot with the highest unit cost first, the oldest
	// one on ties.
	HIFO LotPolicy = hifo{}
)

func (fifo) Next(open []Lot) int { return 0 }
func (fifo) String() string      { return "fifo" }

func (lifo) Next(open []Lot) int { return len(open) - 1 }
func (lifo) String() string      { return "lifo" }

func (hifo) Next(open []Lot) int {
	best := 0
	for i, l := range open[1:] {
		if l.UnitCost().GreaterThan(open[best].UnitCost()) {
			best = i + 1
		}
	}
	return best
}
func (hifo) String() string { return "hifo" }

// ParseLotPolicy parses a policy name: fifo, lifo or hifo.
func ParseLotPolicy(s string) (LotPolicy, error) {
	switch strings.ToLower(s) {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "hifo":
		return HIFO, nil
	default:
		return nil, fmt.Errorf("unknown lot policy: %q", s)
	}
}

// LotPolicies lists the names accepted by ParseLotPolicy.
func LotPolicies() []string { return []string{"fifo", "lifo", "hifo"} }

// lots is the open lots of one asset, in acquisition order.
type lots []Lot

// dispose consumes q units according to policy. It returns the consumed
// pieces, the remaining lots and the quantity that no lot could cover.
func (l lots) dispose(q Quantity, policy LotPolicy) (consumed []Lot, remaining lots, missing Quantity) {
	remaining = append(lots(nil), l...)
	for q.IsPositive() && len(remaining) > 0 {
		i := policy.Next(remaining)
		taken, rest := remaining[i].take(q)
		consumed = append(consumed, taken)
		q = q.Sub(taken.Quantity)
		if rest.Quantity.IsPositive() {
			remaining[i] = rest
		} else {
			remaining = append(remaining[:i], remaining[i+1:]...)
		}
	}
	return consumed, remaining, q
}

// cost is the total cost of the open lots.
func (l lots) cost() Quantity {
	var total Quantity
	for _, x := range l {
		total = total.Add(x.Cost)
	}
	return total
}
