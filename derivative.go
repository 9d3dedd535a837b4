package kryptos

// DerivativePosition is one leveraged or derivative instrument. What depends
// on the instrument type lives in Terms.
type DerivativePosition struct {
	PositionID    string
	Side          Side
	BaseAsset     Asset
	QuoteAsset    Asset
	Size          Quantity
	EntryPrice    *float64
	MarkPrice     *float64
	NotionalValue *PriceModel
	UnrealizedPnl *PriceModel
	Terms         DerivativeTerms // never nil for a valid position
	CreatedAt     *int64
	LastUpdated   *int64
}

// DerivativeTerms is one of OptionTerms, FutureTerms, PerpetualTerms or
// SwapTerms.
type DerivativeTerms interface {
	Type() DerivativeType
	write(w *jsonObjectWriter)
	check(r report)
}

// OptionTerms are the terms of an option.
type OptionTerms struct {
	StrikePrice     float64
	OptionType      OptionType
	ExpiryTimestamp *int64
}

// FutureTerms are the terms of a dated future.
type FutureTerms struct {
	ExpiryTimestamp *int64
}

// PerpetualTerms are the terms of a perpetual swap.
type PerpetualTerms struct {
	Leverage    *float64
	FundingRate *float64
}

// SwapTerms are the terms of a swap. It has none.
type SwapTerms struct{}

func (OptionTerms) Type() DerivativeType    { return DerivativeOption }
func (FutureTerms) Type() DerivativeType    { return DerivativeFuture }
func (PerpetualTerms) Type() DerivativeType { return DerivativePerpetual }
func (SwapTerms) Type() DerivativeType      { return DerivativeSwap }

func (t OptionTerms) write(w *jsonObjectWriter) {
	w.Append("strikePrice", t.StrikePrice)
	w.Optional("expiryTimestamp", t.ExpiryTimestamp)
	w.Append("optionType", t.OptionType)
}

func (t FutureTerms) write(w *jsonObjectWriter) {
	w.Optional("expiryTimestamp", t.ExpiryTimestamp)
}

func (t PerpetualTerms) write(w *jsonObjectWriter) {
	w.Optional("leverage", t.Leverage)
	w.Optional("fundingRate", t.FundingRate)
}

func (SwapTerms) write(*jsonObjectWriter) {}

func (t OptionTerms) check(r report) {
	checkEnum(r, "optionType", t.OptionType)
	if t.StrikePrice <= 0 {
		r.violationAt("strikePrice", "NonPositiveStrike", "strike price is %v", t.StrikePrice)
	}
}

func (FutureTerms) check(report) {}

func (t PerpetualTerms) check(r report) {
	if t.Leverage != nil && *t.Leverage <= 0 {
		r.violationAt("leverage", "NonPositiveLeverage", "leverage is %v", *t.Leverage)
	}
}

func (SwapTerms) check(report) {}

// Type is the instrument type, empty when Terms is not set.
func (p DerivativePosition) Type() DerivativeType {
	if p.Terms == nil {
		return ""
	}
	return p.Terms.Type()
}

// IsOption reports whether p is an option.
func (p DerivativePosition) IsOption() bool { return p.Type() == DerivativeOption }

func (p DerivativePosition) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("positionId", p.PositionID)
	w.Append("type", p.Type())
	w.Append("side", p.Side)
	w.Append("baseAsset", p.BaseAsset)
	w.Append("quoteAsset", p.QuoteAsset)
	w.Append("size", p.Size)
	w.Optional("entryPrice", p.EntryPrice)
	w.Optional("markPrice", p.MarkPrice)
	w.Optional("notionalValue", p.NotionalValue)
	w.Optional("unrealizedPnl", p.UnrealizedPnl)
	if p.Terms != nil {
		p.Terms.write(&w)
	}
	w.Optional("createdAt", p.CreatedAt)
	w.Optional("lastUpdated", p.LastUpdated)
	return w.MarshalJSON()
}

func (p *DerivativePosition) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeWith(data, decodeDerivative)
	return err
}

var (
	optionKeys    = []string{"strikePrice", "optionType"}
	perpetualKeys = []string{"leverage", "fundingRate"}
)

func decodeDerivative(f *fields) DerivativePosition {
	p := DerivativePosition{
		PositionID:    f.String("positionId"),
		Side:          enumField[Side](f, "side", true),
		BaseAsset:     object(f, "baseAsset", decodeAsset),
		QuoteAsset:    object(f, "quoteAsset", decodeAsset),
		Size:          f.Quantity("size"),
		EntryPrice:    f.OptFloat("entryPrice"),
		MarkPrice:     f.OptFloat("markPrice"),
		NotionalValue: optObject(f, "notionalValue", decodePrice),
		UnrealizedPnl: optObject(f, "unrealizedPnl", decodePrice),
		CreatedAt:     f.OptInt("createdAt"),
		LastUpdated:   f.OptInt("lastUpdated"),
	}

	typ := enumField[DerivativeType](f, "type", true)
	if !typ.Valid() {
		return p
	}
	if typ != DerivativeOption {
		f.reject("OptionFieldsOnNonOption", optionKeys...)
		if typ != DerivativeFuture {
			f.reject("OptionFieldsOnNonOption", "expiryTimestamp")
		}
	}
	if typ != DerivativePerpetual {
		f.reject("PerpetualFieldsOnNonPerpetual", perpetualKeys...)
	}

	switch typ {
	case DerivativeOption:
		p.Terms = OptionTerms{
			StrikePrice:     f.Float("strikePrice"),
			OptionType:      enumField[OptionType](f, "optionType", true),
			ExpiryTimestamp: f.OptInt("expiryTimestamp"),
		}
	case DerivativeFuture:
		p.Terms = FutureTerms{ExpiryTimestamp: f.OptInt("expiryTimestamp")}
	case DerivativePerpetual:
		p.Terms = PerpetualTerms{Leverage: f.OptFloat("leverage"), FundingRate: f.OptFloat("fundingRate")}
	case DerivativeSwap:
		p.Terms = SwapTerms{}
	}
	return p
}

// reject records the invariant name for every key present in the object.
func (f *fields) reject(name string, keys ...string) {
	for _, k := range keys {
		if f.has(k) {
			f.r.violationAt(k, name, "%s is not allowed for this type", k)
		}
	}
}

// Validate checks p and returns every problem found.
func (p DerivativePosition) Validate() error { return validate(p.check) }

func (p DerivativePosition) check(r report) {
	if p.PositionID == "" {
		r.missing("positionId")
	}
	checkEnum(r, "side", p.Side)
	p.BaseAsset.check(r.at("baseAsset"))
	p.QuoteAsset.check(r.at("quoteAsset"))
	if !p.Size.IsPositive() {
		r.violationAt("size", "NonPositiveQuantity", "size must be positive, got %s", p.Size)
	}
	checkPrice(r, "notionalValue", p.NotionalValue)
	if p.UnrealizedPnl != nil {
		// a loss is a negative price here.
		if p.UnrealizedPnl.BaseCurrency == "" {
			r.at("unrealizedPnl").missing("baseCurrency")
		} else if !ValidateCurrency(p.UnrealizedPnl.BaseCurrency) {
			r.violationAt("unrealizedPnl.baseCurrency", "UnknownCurrency", "%q is neither an ISO 4217 code nor a ticker", p.UnrealizedPnl.BaseCurrency)
		}
	}
	if p.Terms == nil {
		r.missing("type")
		return
	}
	p.Terms.check(r)
	if p.CreatedAt != nil && p.LastUpdated != nil && *p.CreatedAt > *p.LastUpdated {
		r.violationAt("lastUpdated", "TimestampOrder", "last update %d precedes creation %d", *p.LastUpdated, *p.CreatedAt)
	}
}
