package kryptos

// secondsPerDay converts timestamps to holding periods.
const secondsPerDay = 86400

// TaxPnL is one realized or unrealized tax lot, in base currency.
type TaxPnL struct {
	Asset         Asset // "Asset" on the wire
	Quantity      Quantity
	EntryDate     *int64 // acquisition, unix seconds
	ExitDate      *int64 // disposal, unix seconds; nil while unrealized
	CostBasis     Quantity
	Proceeds      Quantity
	Profit        Quantity
	HoldingPeriod *int64 // days
	Desc          string
	TrxType       string
	Source        *AccountType
	TransactionID string
	IsOtherGains  *bool
}

// Realized reports whether the lot was disposed of.
func (t TaxPnL) Realized() bool { return t.ExitDate != nil }

// HoldingPeriodDays returns the number of whole days between entry and exit,
// and false if either date is unknown.
func (t TaxPnL) HoldingPeriodDays() (int64, bool) {
	if t.EntryDate == nil || t.ExitDate == nil {
		return 0, false
	}
	return holdingDays(*t.EntryDate, *t.ExitDate), true
}

// holdingDays floors the elapsed time to whole days.
func holdingDays(entry, exit int64) int64 {
	d := exit - entry
	days := d / secondsPerDay
	if d%secondsPerDay < 0 {
		days--
	}
	return days
}

func (t TaxPnL) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("Asset", t.Asset)
	w.Append("quantity", t.Quantity)
	w.Optional("entryDate", t.EntryDate)
	w.Optional("exitDate", t.ExitDate)
	w.Append("costbasis", t.CostBasis)
	w.Append("proceeds", t.Proceeds)
	w.Append("profit", t.Profit)
	w.Optional("holdingPeriod", t.HoldingPeriod)
	w.Optional("desc", t.Desc)
	w.Optional("trxType", t.TrxType)
	w.Optional("source", t.Source)
	w.Optional("transactionId", t.TransactionID)
	w.Optional("isOtherGains", t.IsOtherGains)
	return w.MarshalJSON()
}

func (t *TaxPnL) UnmarshalJSON(data []byte) (err error) {
	*t, err = decodeWith(data, decodeTaxPnL)
	return err
}

func decodeTaxPnL(f *fields) TaxPnL {
	return TaxPnL{
		Asset:         object(f, "Asset", decodeAsset),
		Quantity:      f.Quantity("quantity"),
		EntryDate:     f.OptInt("entryDate"),
		ExitDate:      f.OptInt("exitDate"),
		CostBasis:     f.Quantity("costbasis"),
		Proceeds:      f.Quantity("proceeds"),
		Profit:        f.Quantity("profit"),
		HoldingPeriod: f.OptInt("holdingPeriod"),
		Desc:          f.OptString("desc"),
		TrxType:       f.OptString("trxType"),
		Source:        optObject(f, "source", decodeAccount),
		TransactionID: f.OptString("transactionId"),
		IsOtherGains:  f.OptBool("isOtherGains"),
	}
}

// Validate checks t and returns every problem found.
func (t TaxPnL) Validate() error { return validate(t.check) }

func (t TaxPnL) check(r report) {
	t.Asset.check(r.at("Asset"))
	checkAccount(r, "source", t.Source)
	if !t.Quantity.IsPositive() {
		r.violationAt("quantity", "NonPositiveQuantity", "quantity must be positive, got %s", t.Quantity)
	}
	if t.Realized() {
		checkProfit(r, &t.CostBasis, &t.Proceeds, &t.Profit)
	}
	if t.EntryDate != nil && t.ExitDate != nil && *t.EntryDate > *t.ExitDate {
		r.violationAt("exitDate", "TimestampOrder", "exit %d precedes entry %d", *t.ExitDate, *t.EntryDate)
	}
	if days, ok := t.HoldingPeriodDays(); ok && t.HoldingPeriod != nil && *t.HoldingPeriod != days {
		r.violationAt("holdingPeriod", "HoldingPeriodMismatch", "%d days between entry and exit, not %d", days, *t.HoldingPeriod)
	}
}
