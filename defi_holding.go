package kryptos

import (
	"fmt"
	"slices"
)

// DefiHolding is a complete position in one DeFi protocol.
type DefiHolding struct {
	HoldingID       string
	Owner           AccountType
	ProtocolName    string
	ProtocolVersion string
	Chain           string
	ContractAddress string
	LogoURL         string
	SiteURL         string
	Category        PortfolioCategory
	Portfolio       DefiPortfolio
	TotalValue      PriceModel
	NetValue        PriceModel // assets minus liabilities
	CreatedAt       int64
	UpdatedAt       int64
	IsActive        bool
	Tags            []string
	Notes           string
}

func (h DefiHolding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("holdingId", h.HoldingID)
	w.Append("owner", h.Owner)
	w.Append("protocolName", h.ProtocolName)
	w.Optional("protocolVersion", h.ProtocolVersion)
	w.Append("chain", h.Chain)
	w.Optional("contractAddress", h.ContractAddress)
	w.Optional("logoUrl", h.LogoURL)
	w.Optional("siteUrl", h.SiteURL)
	w.Append("category", h.Category)
	w.Append("portfolio", h.Portfolio)
	w.Append("totalValue", h.TotalValue)
	w.Append("netValue", h.NetValue)
	w.Append("createdAt", h.CreatedAt)
	w.Append("updatedAt", h.UpdatedAt)
	w.Append("isActive", h.IsActive)
	w.Optional("tags", h.Tags)
	w.Optional("notes", h.Notes)
	return w.MarshalJSON()
}

func (h *DefiHolding) UnmarshalJSON(data []byte) (err error) {
	*h, err = decodeWith(data, decodeDefiHolding)
	return err
}

func decodeDefiHolding(f *fields) DefiHolding {
	h := DefiHolding{
		HoldingID:       f.String("holdingId"),
		Owner:           object(f, "owner", decodeAccount),
		ProtocolName:    f.String("protocolName"),
		ProtocolVersion: f.OptString("protocolVersion"),
		Chain:           f.String("chain"),
		ContractAddress: f.OptString("contractAddress"),
		LogoURL:         f.OptString("logoUrl"),
		SiteURL:         f.OptString("siteUrl"),
		Category:        enumField[PortfolioCategory](f, "category", true),
		TotalValue:      object(f, "totalValue", decodePrice),
		NetValue:        object(f, "netValue", decodePrice),
		CreatedAt:       f.Int("createdAt"),
		UpdatedAt:       f.Int("updatedAt"),
		IsActive:        f.Bool("isActive"),
		Tags:            f.Strings("tags", false),
		Notes:           f.OptString("notes"),
	}
	if p := f.Object("portfolio", true); p != nil {
		h.Portfolio = decodePortfolio(p)
	}
	return h
}

// Validate checks h and returns every problem found.
func (h DefiHolding) Validate() error { return validate(h.check) }

func (h DefiHolding) check(r report) {
	if h.HoldingID == "" {
		r.missing("holdingId")
	}
	h.Owner.check(r.at("owner"))
	if h.ProtocolName == "" {
		r.missing("protocolName")
	}
	checkEnum(r, "category", h.Category)
	checkAddress(r, "contractAddress", h.ContractAddress)
	h.TotalValue.check(r.at("totalValue"))
	if h.NetValue.BaseCurrency == "" {
		r.at("netValue").missing("baseCurrency")
	}
	if h.UpdatedAt < h.CreatedAt {
		r.violationAt("updatedAt", "TimestampOrder", "updated at %d before its creation at %d", h.UpdatedAt, h.CreatedAt)
	}

	if isNilPortfolio(h.Portfolio) {
		r.missing("portfolio")
		return
	}
	h.Portfolio.check(r.at("portfolio"))
	if c := h.Portfolio.Category(); c != h.Category {
		r.violationAt("portfolio.category", "CategoryMismatch", "portfolio is %q, holding is %q", c, h.Category)
	}

	net, err := NetValue(h)
	if err != nil {
		r.violationAt("netValue", "NetValueUncomputable", "%v", err)
		return
	}
	if !floatNear(net.Price, h.NetValue.Price) {
		r.violationAt("netValue", "NetValueMismatch", "total %v minus liabilities gives %v, not %v", h.TotalValue.Price, net.Price, h.NetValue.Price)
	}
}

// NetValue computes the net value of h: its total value minus the value of
// its liabilities. Every liability must be valued in the currency of the
// total value.
func NetValue(h DefiHolding) (PriceModel, error) {
	net := h.TotalValue
	for i, p := range Liabilities(h.Portfolio) {
		switch {
		case p.Value == nil:
			return net, fmt.Errorf("liability #%d (%s) has no value", i, p.Asset.Symbol)
		case p.Value.BaseCurrency != h.TotalValue.BaseCurrency:
			return net, fmt.Errorf("liability #%d (%s) is valued in %s, not %s", i, p.Asset.Symbol, p.Value.BaseCurrency, h.TotalValue.BaseCurrency)
		}
		net.Price -= p.Value.Price
	}
	return net, nil
}

// WithNetValue returns a copy of h with its net value recomputed.
func (h DefiHolding) WithNetValue() (DefiHolding, error) {
	net, err := NetValue(h)
	if err != nil {
		return h, err
	}
	h.NetValue = net
	h.Tags = slices.Clone(h.Tags)
	return h, nil
}
