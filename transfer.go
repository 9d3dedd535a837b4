package kryptos

import (
	"encoding/json"
	"fmt"
)

// AssetTransfer holds the fields shared by every transfer: one asset moved in
// some quantity at one price.
type AssetTransfer struct {
	Asset    Asset
	Quantity Quantity
	Price    PriceModel
}

func (t AssetTransfer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", t.Asset)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	return w.MarshalJSON()
}

func decodeAssetTransfer(f *fields) AssetTransfer {
	return AssetTransfer{
		Asset:    object(f, "asset", decodeAsset),
		Quantity: f.Quantity("quantity"),
		Price:    object(f, "price", decodePrice),
	}
}

func (t AssetTransfer) check(r report) {
	t.Asset.check(r.at("asset"))
	if !t.Quantity.IsPositive() {
		r.violationAt("quantity", "NonPositiveQuantity", "quantity must be positive, got %s", t.Quantity)
	}
	t.Price.check(r.at("price"))
}

// Value is the quantity valued at the transfer price.
func (t AssetTransfer) Value() Quantity { return t.Price.Value(t.Quantity) }

// Transfer is one of IncomingTransfer, OutgoingTransfer or FeeTransfer.
type Transfer interface {
	json.Marshaler
	// Type is the wire discriminant.
	Type() TransferType
	// Base returns the shared asset, quantity and price.
	Base() AssetTransfer
	// Account is the account whose balance the transfer changes.
	Account() *AccountType
	Validate() error

	check(r report)
}

// IncomingTransfer credits ToAccount. FromAccount is nil when the sender is
// external or unknown.
type IncomingTransfer struct {
	AssetTransfer
	FromAccount   *AccountType
	ToAccount     *AccountType // required
	InternalLabel string
	PlatformID    string // transactionPlatfromId
}

// OutgoingTransfer debits FromAccount. ToAccount is nil when the receiver is
// external or unknown.
type OutgoingTransfer struct {
	AssetTransfer
	FromAccount   *AccountType // required
	ToAccount     *AccountType
	InternalLabel string
	PlatformID    string // transactionPlatfromId
}

// FeeTransfer debits FeeAccount.
type FeeTransfer struct {
	AssetTransfer
	FeeAccount *AccountType // required
}

func (IncomingTransfer) Type() TransferType { return Incoming }
func (OutgoingTransfer) Type() TransferType { return Outgoing }
func (FeeTransfer) Type() TransferType      { return Fee }

func (t IncomingTransfer) Base() AssetTransfer { return t.AssetTransfer }
func (t OutgoingTransfer) Base() AssetTransfer { return t.AssetTransfer }
func (t FeeTransfer) Base() AssetTransfer      { return t.AssetTransfer }

func (t IncomingTransfer) Account() *AccountType { return t.ToAccount }
func (t OutgoingTransfer) Account() *AccountType { return t.FromAccount }
func (t FeeTransfer) Account() *AccountType      { return t.FeeAccount }

func (t IncomingTransfer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", Incoming)
	w.EmbedFrom(t.AssetTransfer)
	w.Optional("fromAccount", t.FromAccount)
	w.Append("toAccount", t.ToAccount)
	w.Optional("internalLabel", t.InternalLabel)
	w.Append("transactionPlatfromId", t.PlatformID)
	return w.MarshalJSON()
}

func (t OutgoingTransfer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", Outgoing)
	w.EmbedFrom(t.AssetTransfer)
	w.Append("fromAccount", t.FromAccount)
	w.Optional("toAccount", t.ToAccount)
	w.Optional("internalLabel", t.InternalLabel)
	w.Append("transactionPlatfromId", t.PlatformID)
	return w.MarshalJSON()
}

func (t FeeTransfer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", Fee)
	w.EmbedFrom(t.AssetTransfer)
	w.Append("feeAccount", t.FeeAccount)
	return w.MarshalJSON()
}

func (t *IncomingTransfer) UnmarshalJSON(data []byte) (err error) {
	*t, err = decodeWith(data, decodeIncoming)
	return err
}

func (t *OutgoingTransfer) UnmarshalJSON(data []byte) (err error) {
	*t, err = decodeWith(data, decodeOutgoing)
	return err
}

func (t *FeeTransfer) UnmarshalJSON(data []byte) (err error) {
	*t, err = decodeWith(data, decodeFee)
	return err
}

// expectType reads the discriminant of a transfer or a ledger entry decoded
// in a position where only want is allowed.
func expectType(f *fields, want TransferType) {
	got := enumField[TransferType](f, "type", true)
	if got.Valid() && got != want {
		f.r.violationAt("type", "TransferTypeMismatch", "expected %q, got %q", want, got)
	}
}

func decodeIncoming(f *fields) IncomingTransfer {
	expectType(f, Incoming)
	return IncomingTransfer{
		AssetTransfer: decodeAssetTransfer(f),
		FromAccount:   optObject(f, "fromAccount", decodeAccount),
		ToAccount:     reqObject(f, "toAccount", decodeAccount),
		InternalLabel: f.OptString("internalLabel"),
		PlatformID:    f.String("transactionPlatfromId"),
	}
}

func decodeOutgoing(f *fields) OutgoingTransfer {
	expectType(f, Outgoing)
	return OutgoingTransfer{
		AssetTransfer: decodeAssetTransfer(f),
		FromAccount:   reqObject(f, "fromAccount", decodeAccount),
		ToAccount:     optObject(f, "toAccount", decodeAccount),
		InternalLabel: f.OptString("internalLabel"),
		PlatformID:    f.String("transactionPlatfromId"),
	}
}

func decodeFee(f *fields) FeeTransfer {
	expectType(f, Fee)
	return FeeTransfer{
		AssetTransfer: decodeAssetTransfer(f),
		FeeAccount:    reqObject(f, "feeAccount", decodeAccount),
	}
}

// DecodeTransfer decodes any transfer, dispatching on its type.
func DecodeTransfer(data []byte) (Transfer, error) {
	return decodeWith(data, decodeTransfer)
}

func decodeTransfer(f *fields) Transfer {
	switch t := enumField[TransferType](f, "type", true); t {
	case Incoming:
		return decodeIncoming(f)
	case Outgoing:
		return decodeOutgoing(f)
	case Fee:
		return decodeFee(f)
	default:
		return nil
	}
}

func (t IncomingTransfer) Validate() error { return validate(t.check) }
func (t OutgoingTransfer) Validate() error { return validate(t.check) }
func (t FeeTransfer) Validate() error      { return validate(t.check) }

func (t IncomingTransfer) check(r report) {
	t.AssetTransfer.check(r)
	checkRequiredAccount(r, "toAccount", t.ToAccount)
	checkAccount(r, "fromAccount", t.FromAccount)
}

func (t OutgoingTransfer) check(r report) {
	t.AssetTransfer.check(r)
	checkRequiredAccount(r, "fromAccount", t.FromAccount)
	checkAccount(r, "toAccount", t.ToAccount)
}

func (t FeeTransfer) check(r report) {
	t.AssetTransfer.check(r)
	checkRequiredAccount(r, "feeAccount", t.FeeAccount)
}

// validate runs check on a fresh report.
func validate(check func(report)) error {
	r := newReport()
	check(r)
	return r.err()
}

func (t IncomingTransfer) String() string {
	return fmt.Sprintf("+%s %s", t.Quantity, t.Asset.Symbol)
}

func (t OutgoingTransfer) String() string {
	return fmt.Sprintf("-%s %s", t.Quantity, t.Asset.Symbol)
}

func (t FeeTransfer) String() string {
	return fmt.Sprintf("fee %s %s", t.Quantity, t.Asset.Symbol)
}
