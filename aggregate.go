package kryptos

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/samber/lo"
)

// Market is the market data used to value a holding.
type Market struct {
	Price     PriceModel
	Change24h Percent
	Links     map[string]string
}

// Aggregation is the result of folding a ledger history.
type Aggregation struct {
	Holding  Holding
	Realized []TaxPnL // one lot per disposal piece, in disposal order
	Open     []Lot    // remaining acquisitions
}

// ErrNoLotPolicy is returned when AggregateHoldings is called without a policy.
var ErrNoLotPolicy = errors.New("no lot policy: choose one of fifo, lifo or hifo")

// AggregateHoldings folds the ledger entries of asset into a Holding.
//
// Entries must be sorted by timestamp ascending; the fold fails fast with an
// UnorderedInput problem otherwise and never sorts them. Entries of other
// assets are ignored.
//
// Incoming entries open lots, at their costbasis when set or else at their
// value. Outgoing and fee entries dispose of lots chosen by policy and emit a
// realized TaxPnL per consumed piece, with proceeds from the entry proceeds
// when set or else its value. A transfer between two accounts of the history
// (an outgoing and an incoming entry of the same transaction and quantity)
// only moves units and keeps the lots.
func AggregateHoldings(asset Asset, entries []LedgerEntry, policy LotPolicy, market Market) (Aggregation, error) {
	if policy == nil {
		return Aggregation{}, ErrNoLotPolicy
	}
	key := asset.Key()
	entries = lo.Filter(entries, func(e LedgerEntry, _ int) bool { return e.Asset.Key() == key })

	moves := internalMoves(entries)
	var (
		open     lots
		realized []TaxPnL
		balances = make(map[string]Quantity)
		accounts = make(map[string]AccountType)
		order    []string // account keys in order of appearance
	)
	for i, e := range entries {
		if i > 0 && e.Timestamp < entries[i-1].Timestamp {
			r := newReport()
			r.add(&Problem{Kind: UnorderedInput, Path: fmt.Sprintf("[%d].timestamp", i), Detail: fmt.Sprintf("%d after %d", e.Timestamp, entries[i-1].Timestamp)})
			return Aggregation{}, r.err()
		}

		acc := e.accountKey()
		if _, ok := balances[acc]; !ok {
			order = append(order, acc)
			if a := e.Account(); a != nil {
				accounts[acc] = *a
			}
		}
		balances[acc] = balances[acc].Add(e.Delta())

		if moves[i] {
			slog.Debug("internal move", "transaction", e.TransactionID, "type", e.Type, "quantity", e.Quantity)
			continue
		}
		if e.Type == Incoming {
			cost := e.Price.Value(e.Quantity)
			if e.CostBasis != nil {
				cost = *e.CostBasis
			}
			open = append(open, Lot{Timestamp: e.Timestamp, TransactionID: e.TransactionID, Quantity: e.Quantity, Cost: cost, Account: e.Account()})
			continue
		}

		consumed, rest, missing := open.dispose(e.Quantity, policy)
		if missing.IsPositive() {
			r := newReport()
			r.index(i).violationAt("quantity", "InsufficientLots", "%s %s disposed of without a matching acquisition", missing, asset.Symbol)
			return Aggregation{}, r.err()
		}
		open = rest
		realized = append(realized, realize(asset, e, consumed)...)
		slog.Debug("lots consumed", "policy", policy, "transaction", e.TransactionID, "lots", len(consumed), "open", len(open))
	}

	h := Holding{
		Asset:       asset,
		MarketPrice: market.Price.Price,
		Change24h:   market.Change24h,
		MarketLinks: maps.Clone(market.Links),
	}
	for _, acc := range order {
		q := balances[acc]
		h.TotalQuantity = h.TotalQuantity.Add(q)
		if q.IsZero() {
			continue
		}
		h.Distribution = append(h.Distribution, AssetDistribution{Quantity: q, Account: accounts[acc]})
	}
	h.CostBasis = open.cost()
	h.MarketValue = market.Price.Value(h.TotalQuantity)
	h.UnrealizedPnL = h.MarketValue.Sub(h.CostBasis)
	h = h.Allocate()

	return Aggregation{Holding: h, Realized: realized, Open: open}, nil
}

// realize turns the lots consumed by a disposal into realized tax lots. The
// proceeds are shared pro rata of quantity.
func realize(asset Asset, e LedgerEntry, consumed []Lot) []TaxPnL {
	proceeds := e.Price.Value(e.Quantity)
	if e.Proceeds != nil {
		proceeds = *e.Proceeds
	}
	exit := e.Timestamp
	return lo.Map(consumed, func(l Lot, _ int) TaxPnL {
		share := proceeds.Mul(l.Quantity).Div(e.Quantity)
		entry := l.Timestamp
		days := holdingDays(entry, exit)
		return TaxPnL{
			Asset:         asset,
			Quantity:      l.Quantity,
			EntryDate:     &entry,
			ExitDate:      &exit,
			CostBasis:     l.Cost,
			Proceeds:      share,
			Profit:        share.Sub(l.Cost),
			HoldingPeriod: &days,
			Desc:          e.Description,
			TrxType:       string(e.Type),
			Source:        clonePtr(e.Account()),
			TransactionID: e.TransactionID,
		}
	})
}

// internalMoves flags the entries that move units between two accounts
// within one transaction: an outgoing entry paired with an incoming entry of
// the same asset and quantity on another account. When an entry names its
// counterparty account, the pair must agree with it.
func internalMoves(entries []LedgerEntry) map[int]bool {
	moves := make(map[int]bool)
	outgoing := make(map[string][]int) // asset, transaction and quantity -> unpaired outgoing entries
	moveKey := func(e LedgerEntry) string {
		return e.Asset.Key() + "|" + e.TransactionID + "|" + e.Quantity.String()
	}
	for i, e := range entries {
		if e.Type == Outgoing {
			k := moveKey(e)
			outgoing[k] = append(outgoing[k], i)
		}
	}
	for i, in := range entries {
		if in.Type != Incoming {
			continue
		}
		k := moveKey(in)
		pending := outgoing[k]
		j := slices.IndexFunc(pending, func(o int) bool { return pairs(entries[o], in) })
		if j < 0 {
			continue
		}
		moves[i], moves[pending[j]] = true, true
		outgoing[k] = slices.Delete(pending, j, j+1)
	}
	return moves
}

// pairs reports whether out and in can be the two legs of one move.
func pairs(out, in LedgerEntry) bool {
	from, to := out.accountKey(), in.accountKey()
	if from == "" || to == "" || from == to {
		return false
	}
	if out.ToAccount != nil && out.ToAccount.Key() != to {
		return false
	}
	if in.FromAccount != nil && in.FromAccount.Key() != from {
		return false
	}
	return true
}
