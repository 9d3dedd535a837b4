package kryptos

import "github.com/samber/lo"

// Holding is the point-in-time aggregate of the ledger history of one asset.
// It is derived, see AggregateHoldings, and never the source of truth.
type Holding struct {
	Asset         Asset
	TotalQuantity Quantity
	CostBasis     Quantity // costbasis, in base currency
	MarketPrice   float64
	MarketValue   Quantity
	UnrealizedPnL Quantity
	Change24h     Percent           // "24hrChange"
	MarketLinks   map[string]string // e.g. coingecko -> https://www.coingecko.com/en/coins/ethereum
	Distribution  []AssetDistribution
}

// AssetDistribution is the share of a holding kept in one account.
type AssetDistribution struct {
	Quantity             Quantity
	Account              AccountType
	AllocationPercentage Percent
}

func (d AssetDistribution) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("quantity", d.Quantity)
	w.Append("account", d.Account)
	w.Append("allocationPercentage", d.AllocationPercentage)
	return w.MarshalJSON()
}

func (d *AssetDistribution) UnmarshalJSON(data []byte) (err error) {
	*d, err = decodeWith(data, decodeDistribution)
	return err
}

func decodeDistribution(f *fields) AssetDistribution {
	return AssetDistribution{
		Quantity:             f.Quantity("quantity"),
		Account:              object(f, "account", decodeAccount),
		AllocationPercentage: Percent(f.Float("allocationPercentage")),
	}
}

func (h Holding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", h.Asset)
	w.Append("totalQuantity", h.TotalQuantity)
	w.Append("costbasis", h.CostBasis)
	w.Append("marketPrice", h.MarketPrice)
	w.Append("marketValue", h.MarketValue)
	w.Append("unrealizedPnL", h.UnrealizedPnL)
	w.Append("24hrChange", h.Change24h)
	w.Append("marketLinks", nonNilMap(h.MarketLinks))
	w.Array("assetDistribution", h.Distribution)
	return w.MarshalJSON()
}

func (h *Holding) UnmarshalJSON(data []byte) (err error) {
	*h, err = decodeWith(data, decodeHolding)
	return err
}

func decodeHolding(f *fields) Holding {
	return Holding{
		Asset:         object(f, "asset", decodeAsset),
		TotalQuantity: f.Quantity("totalQuantity"),
		CostBasis:     f.Quantity("costbasis"),
		MarketPrice:   f.Float("marketPrice"),
		MarketValue:   f.Quantity("marketValue"),
		UnrealizedPnL: f.Quantity("unrealizedPnL"),
		Change24h:     Percent(f.Float("24hrChange")),
		MarketLinks:   f.StringMap("marketLinks", true),
		Distribution:  objectList(f, "assetDistribution", true, decodeDistribution),
	}
}

// Validate checks h and returns every problem found.
func (h Holding) Validate() error { return validate(h.check) }

func (h Holding) check(r report) {
	h.Asset.check(r.at("asset"))
	for i, d := range h.Distribution {
		dr := r.at("assetDistribution").index(i)
		d.Account.check(dr.at("account"))
		if d.Quantity.IsNegative() {
			dr.violationAt("quantity", "NegativeQuantity", "an account cannot hold %s", d.Quantity)
		}
	}

	sum := sumQuantities(lo.Map(h.Distribution, func(d AssetDistribution, _ int) Quantity { return d.Quantity })...)
	if !sum.Equal(h.TotalQuantity) {
		r.violationAt("assetDistribution", "DistributionQuantityMismatch", "distribution sums to %s, total is %s", sum, h.TotalQuantity)
	}
	// an empty position with no account has nothing to allocate.
	if !h.TotalQuantity.IsZero() || len(h.Distribution) > 0 {
		pct := lo.SumBy(h.Distribution, func(d AssetDistribution) Percent { return d.AllocationPercentage })
		if !pct.Near(100, AllocationTolerance) {
			r.violationAt("assetDistribution", "AllocationSumMismatch", "allocations sum to %s", pct)
		}
	}
	if want := h.MarketValue.Sub(h.CostBasis); !want.Equal(h.UnrealizedPnL) {
		r.violationAt("unrealizedPnL", "UnrealizedPnLMismatch", "market value %s minus cost basis %s is %s, not %s", h.MarketValue, h.CostBasis, want, h.UnrealizedPnL)
	}
}

// Allocate sets the allocation percentage of every account from its quantity.
func (h Holding) Allocate() Holding {
	h.Distribution = lo.Map(h.Distribution, func(d AssetDistribution, _ int) AssetDistribution {
		if h.TotalQuantity.IsZero() {
			d.AllocationPercentage = 0
		} else {
			d.AllocationPercentage = Percent(d.Quantity.Div(h.TotalQuantity).Float() * 100)
		}
		return d
	})
	return h
}
