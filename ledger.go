package kryptos

import (
	"maps"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// LedgerEntry is one immutable movement of one asset, tied to its parent
// transaction, with the balance of the account before and after.
//
// Entries are never edited. An edit appends a new entry with the same
// TransactionID, see Supersede.
type LedgerEntry struct {
	ID            string
	TransactionID string
	Timestamp     int64
	Asset         Asset
	Quantity      Quantity // always positive, Type gives the direction
	Price         PriceModel
	Type          TransferType
	Label         string
	Description   string
	FromAccount   *AccountType
	ToAccount     *AccountType
	BeforeBalance Quantity
	AfterBalance  Quantity

	// Tax related, in base currency.
	CostBasis *Quantity
	Proceeds  *Quantity
	Profit    *Quantity
}

// newID returns a fresh ledger entry id.
var newID = uuid.NewString

// Delta is the signed change the entry makes to the account balance.
func (e LedgerEntry) Delta() Quantity {
	if e.Type == Incoming {
		return e.Quantity
	}
	return e.Quantity.Neg()
}

// Account is the account whose balance the entry changes: the receiver of an
// incoming entry, the sender otherwise.
func (e LedgerEntry) Account() *AccountType {
	if e.Type == Incoming {
		return e.ToAccount
	}
	return e.FromAccount
}

// accountKey identifies the balance an entry changes.
func (e LedgerEntry) accountKey() string { return accountKey(e.Account()) }

// Supersede returns a new entry replacing e: edit is applied to a deep copy,
// then the copy gets a fresh id and keeps e's TransactionID. e is unchanged.
func (e LedgerEntry) Supersede(edit func(*LedgerEntry)) LedgerEntry {
	n := e.clone()
	if edit != nil {
		edit(&n)
	}
	n.ID = newID()
	n.TransactionID = e.TransactionID
	return n
}

func (e LedgerEntry) clone() LedgerEntry {
	e.Asset = e.Asset.clone()
	e.FromAccount = clonePtr(e.FromAccount)
	e.ToAccount = clonePtr(e.ToAccount)
	e.CostBasis = clonePtr(e.CostBasis)
	e.Proceeds = clonePtr(e.Proceeds)
	e.Profit = clonePtr(e.Profit)
	return e
}

// clone copies the mutable parts of a. The collection is shared reference
// data and is not copied.
func (a Asset) clone() Asset {
	a.ProviderID = maps.Clone(a.ProviderID)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID)
	w.Append("transactionId", e.TransactionID)
	w.Append("timestamp", e.Timestamp)
	w.Append("asset", e.Asset)
	w.Append("quantity", e.Quantity)
	w.Append("price", e.Price)
	w.Append("type", e.Type)
	w.Append("label", e.Label)
	w.Append("description", e.Description)
	w.Optional("fromAccount", e.FromAccount)
	w.Optional("toAccount", e.ToAccount)
	w.Append("beforeBalance", e.BeforeBalance)
	w.Append("afterBalance", e.AfterBalance)
	w.Optional("costbasis", e.CostBasis)
	w.Optional("proceeds", e.Proceeds)
	w.Optional("profit", e.Profit)
	return w.MarshalJSON()
}

func (e *LedgerEntry) UnmarshalJSON(data []byte) (err error) {
	*e, err = decodeWith(data, decodeLedgerEntry)
	return err
}

func decodeLedgerEntry(f *fields) LedgerEntry {
	return LedgerEntry{
		ID:            f.String("id"),
		TransactionID: f.String("transactionId"),
		Timestamp:     f.Int("timestamp"),
		Asset:         object(f, "asset", decodeAsset),
		Quantity:      f.Quantity("quantity"),
		Price:         object(f, "price", decodePrice),
		Type:          enumField[TransferType](f, "type", true),
		Label:         f.String("label"),
		Description:   f.String("description"),
		FromAccount:   optObject(f, "fromAccount", decodeAccount),
		ToAccount:     optObject(f, "toAccount", decodeAccount),
		BeforeBalance: f.Quantity("beforeBalance"),
		AfterBalance:  f.Quantity("afterBalance"),
		CostBasis:     f.OptQuantity("costbasis"),
		Proceeds:      f.OptQuantity("proceeds"),
		Profit:        f.OptQuantity("profit"),
	}
}

// Validate checks e and returns every problem found.
func (e LedgerEntry) Validate() error { return validate(e.check) }

func (e LedgerEntry) check(r report) {
	if e.ID == "" {
		r.missing("id")
	}
	if e.TransactionID == "" {
		r.missing("transactionId")
	}
	e.Asset.check(r.at("asset"))
	e.Price.check(r.at("price"))
	checkEnum(r, "type", e.Type)
	if !e.Quantity.IsPositive() {
		r.violationAt("quantity", "NonPositiveQuantity", "quantity must be positive, got %s", e.Quantity)
	}
	checkAccount(r, "fromAccount", e.FromAccount)
	checkAccount(r, "toAccount", e.ToAccount)

	if e.Type.Valid() {
		if want := e.BeforeBalance.Add(e.Delta()); !want.Equal(e.AfterBalance) {
			r.violationAt("afterBalance", "BalanceMismatch", "%s %s %s from %s gives %s, not %s", e.Type, e.Quantity, e.Asset.Symbol, e.BeforeBalance, want, e.AfterBalance)
		}
	}
	checkProfit(r, e.CostBasis, e.Proceeds, e.Profit)
}

// checkProfit verifies profit = proceeds - costbasis when all three are known.
func checkProfit(r report, costBasis, proceeds, profit *Quantity) {
	if costBasis == nil || proceeds == nil || profit == nil {
		return
	}
	if want := proceeds.Sub(*costBasis); !want.Equal(*profit) {
		r.violationAt("profit", "ProfitMismatch", "proceeds %s minus cost basis %s is %s, not %s", proceeds, costBasis, want, profit)
	}
}

// CheckLedgerSequence verifies a ledger history: per asset and account, the
// entries must be timestamp-ascending and each beforeBalance must equal the
// previous afterBalance.
func CheckLedgerSequence(entries []LedgerEntry) error {
	r := newReport()
	type last struct {
		index int
		entry LedgerEntry
	}
	seen := make(map[string]last)
	for i, e := range entries {
		key := balanceKey(e.Asset, e.Account())
		if prev, ok := seen[key]; ok {
			er := r.index(i)
			if e.Timestamp < prev.entry.Timestamp {
				er.add(&Problem{Kind: UnorderedInput, Path: joinPath(er.path, "timestamp"), Detail: "timestamp decreases from entry " + prev.entry.ID})
			}
			if !e.BeforeBalance.Equal(prev.entry.AfterBalance) {
				er.violationAt("beforeBalance", "BalanceChainBroken", "before balance %s does not continue [%d] after balance %s", e.BeforeBalance, prev.index, prev.entry.AfterBalance)
			}
		}
		seen[key] = last{i, e}
	}
	return r.err()
}

// Balances holds the running balance of each asset in each account.
type Balances map[string]Quantity

func balanceKey(a Asset, account *AccountType) string {
	k := a.Key() + "|"
	if account != nil {
		k += account.Key()
	}
	return k
}

// Get returns the balance of asset in account, zero if unknown.
func (b Balances) Get(a Asset, account *AccountType) Quantity {
	return b[balanceKey(a, account)]
}

// DeriveLedger builds one ledger entry per transfer of tx, in the order of
// Transfers, carrying the running balances. It returns the entries and the
// updated balances; balances itself is not modified.
func DeriveLedger(tx Transaction, balances Balances) ([]LedgerEntry, Balances) {
	next := maps.Clone(balances)
	if next == nil {
		next = make(Balances)
	}
	transfers := tx.Transfers()
	entries := make([]LedgerEntry, 0, len(transfers))
	for _, t := range transfers {
		base := t.Base()
		e := LedgerEntry{
			ID:            newID(),
			TransactionID: tx.ID,
			Timestamp:     tx.Timestamp,
			Asset:         base.Asset,
			Quantity:      base.Quantity,
			Price:         base.Price,
			Type:          t.Type(),
			Label:         tx.Label,
			Description:   tx.Description,
		}
		switch t := t.(type) {
		case IncomingTransfer:
			e.FromAccount, e.ToAccount = t.FromAccount, t.ToAccount
		case OutgoingTransfer:
			e.FromAccount, e.ToAccount = t.FromAccount, t.ToAccount
		case FeeTransfer:
			e.FromAccount = t.FeeAccount
		}
		key := balanceKey(e.Asset, e.Account())
		e.BeforeBalance = next[key]
		e.AfterBalance = e.BeforeBalance.Add(e.Delta())
		next[key] = e.AfterBalance
		entries = append(entries, e)
	}
	return entries, next
}

// ValidateLedger checks every entry of a ledger history, then the history
// itself with CheckLedgerSequence.
func ValidateLedger(entries []LedgerEntry) error {
	r := newReport()
	for i, e := range entries {
		e.check(r.index(i))
	}
	return multierr.Append(r.err(), CheckLedgerSequence(entries))
}
