package kryptos

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Transaction is the top-level aggregate: the transfers of one on-chain or
// exchange operation, its metadata and the ledger entries it produced.
type Transaction struct {
	ID             string
	PlatformID     string // transactionPlatfromId, the external id
	IncomingAssets []IncomingTransfer
	OutgoingAssets []OutgoingTransfer
	Timestamp      int64
	Label          string
	Fee            []FeeTransfer
	Description    string
	Notes          string
	Metadata       Metadata
	Protocol       *ProtocolCall
	Ledger         []LedgerEntry
	Tags           []string
	RawTrx         json.RawMessage // provider payload, kept verbatim and never interpreted
}

// Metadata tells where a transaction comes from and what it is about.
type Metadata struct {
	ImportSource   ImportSource
	ImportWalletID string
	IsManual       bool
	IsEdited       bool
	IsDefiTrx      bool
	IsNFTTrx       bool
}

// ProtocolCall describes the smart contract function a DeFi transaction
// called.
type ProtocolCall struct {
	FunctionName    string
	ProtocolID      string
	ProtocolName    string
	ProtocolLogoURL string
}

// Transfers lists every transfer of tx in wire order: incoming, outgoing,
// then fees.
func (tx Transaction) Transfers() []Transfer {
	list := make([]Transfer, 0, len(tx.IncomingAssets)+len(tx.OutgoingAssets)+len(tx.Fee))
	for _, t := range tx.IncomingAssets {
		list = append(list, t)
	}
	for _, t := range tx.OutgoingAssets {
		list = append(list, t)
	}
	for _, t := range tx.Fee {
		list = append(list, t)
	}
	return list
}

// HasNFT reports whether any transferred asset is an nft.
func (tx Transaction) HasNFT() bool {
	return slices.ContainsFunc(tx.Transfers(), func(t Transfer) bool { return t.Base().Asset.IsNFT() })
}

// Edit returns an edited copy of tx: change is applied to a deep copy, the
// copy is flagged as edited and its ledger is replaced by superseding
// entries derived from the changed transfers. The balances of the new entries
// start where the original entries started. tx is unchanged.
func (tx Transaction) Edit(change func(*Transaction)) Transaction {
	edited := tx.clone()
	if change != nil {
		change(&edited)
	}
	edited.ID = tx.ID
	edited.Metadata.IsEdited = true

	// the first entry of each balance gives its starting point.
	start := make(Balances)
	for _, e := range tx.Ledger {
		key := balanceKey(e.Asset, e.Account())
		if _, ok := start[key]; !ok {
			start[key] = e.BeforeBalance
		}
	}
	edited.Ledger, _ = DeriveLedger(edited, start)
	return edited
}

func (tx Transaction) clone() Transaction {
	tx.IncomingAssets = cloneEach(tx.IncomingAssets, IncomingTransfer.clone)
	tx.OutgoingAssets = cloneEach(tx.OutgoingAssets, OutgoingTransfer.clone)
	tx.Fee = cloneEach(tx.Fee, FeeTransfer.clone)
	tx.Protocol = clonePtr(tx.Protocol)
	tx.Ledger = cloneEach(tx.Ledger, LedgerEntry.clone)
	tx.Tags = slices.Clone(tx.Tags)
	tx.RawTrx = bytes.Clone(tx.RawTrx)
	return tx
}

func cloneEach[T any](list []T, clone func(T) T) []T {
	if list == nil {
		return nil
	}
	out := make([]T, len(list))
	for i, v := range list {
		out[i] = clone(v)
	}
	return out
}

func (t IncomingTransfer) clone() IncomingTransfer {
	t.Asset = t.Asset.clone()
	t.FromAccount, t.ToAccount = clonePtr(t.FromAccount), clonePtr(t.ToAccount)
	return t
}

func (t OutgoingTransfer) clone() OutgoingTransfer {
	t.Asset = t.Asset.clone()
	t.FromAccount, t.ToAccount = clonePtr(t.FromAccount), clonePtr(t.ToAccount)
	return t
}

func (t FeeTransfer) clone() FeeTransfer {
	t.Asset = t.Asset.clone()
	t.FeeAccount = clonePtr(t.FeeAccount)
	return t
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("importSource", m.ImportSource)
	w.Optional("importWalletId", m.ImportWalletID)
	w.Append("isManual", m.IsManual)
	w.Append("isEdited", m.IsEdited)
	w.Append("isDefiTrx", m.IsDefiTrx)
	w.Append("isNFTTrx", m.IsNFTTrx)
	return w.MarshalJSON()
}

func (m *Metadata) UnmarshalJSON(data []byte) (err error) {
	*m, err = decodeWith(data, decodeMetadata)
	return err
}

func decodeMetadata(f *fields) Metadata {
	return Metadata{
		ImportSource:   enumField[ImportSource](f, "importSource", true),
		ImportWalletID: f.OptString("importWalletId"),
		IsManual:       f.Bool("isManual"),
		IsEdited:       f.Bool("isEdited"),
		IsDefiTrx:      f.Bool("isDefiTrx"),
		IsNFTTrx:       f.Bool("isNFTTrx"),
	}
}

func (p ProtocolCall) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("functionName", p.FunctionName)
	w.Append("protocolId", p.ProtocolID)
	w.Append("protocolName", p.ProtocolName)
	w.Append("protocolLogoUrl", p.ProtocolLogoURL)
	return w.MarshalJSON()
}

func (p *ProtocolCall) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeWith(data, decodeProtocolCall)
	return err
}

func decodeProtocolCall(f *fields) ProtocolCall {
	return ProtocolCall{
		FunctionName:    f.String("functionName"),
		ProtocolID:      f.String("protocolId"),
		ProtocolName:    f.String("protocolName"),
		ProtocolLogoURL: f.String("protocolLogoUrl"),
	}
}

func (tx Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", tx.ID)
	w.Optional("transactionPlatfromId", tx.PlatformID)
	w.Array("incomingAssets", tx.IncomingAssets)
	w.Array("outgoingAssets", tx.OutgoingAssets)
	w.Append("timestamp", tx.Timestamp)
	w.Append("label", tx.Label)
	w.Array("fee", tx.Fee)
	w.Optional("description", tx.Description)
	w.Optional("notes", tx.Notes)
	w.Append("metadata", tx.Metadata)
	w.Optional("protocol", tx.Protocol)
	w.Array("ledger", tx.Ledger)
	w.Array("tags", tx.Tags)
	w.Append("rawTrx", rawOrNull(tx.RawTrx))
	return w.MarshalJSON()
}

func (tx *Transaction) UnmarshalJSON(data []byte) (err error) {
	*tx, err = decodeWith(data, decodeTransaction)
	return err
}

func decodeTransaction(f *fields) Transaction {
	return Transaction{
		ID:             f.String("id"),
		PlatformID:     f.OptString("transactionPlatfromId"),
		IncomingAssets: objectList(f, "incomingAssets", true, decodeIncoming),
		OutgoingAssets: objectList(f, "outgoingAssets", true, decodeOutgoing),
		Timestamp:      f.Int("timestamp"),
		Label:          f.String("label"),
		Fee:            objectList(f, "fee", true, decodeFee),
		Description:    f.OptString("description"),
		Notes:          f.OptString("notes"),
		Metadata:       object(f, "metadata", decodeMetadata),
		Protocol:       optObject(f, "protocol", decodeProtocolCall),
		Ledger:         objectList(f, "ledger", true, decodeLedgerEntry),
		Tags:           f.Strings("tags", true),
		RawTrx:         f.Raw("rawTrx"),
	}
}

// Validate checks tx and returns every problem found.
func (tx Transaction) Validate() error { return validate(tx.check) }

func (tx Transaction) check(r report) {
	if tx.ID == "" {
		r.missing("id")
	}
	if len(tx.IncomingAssets) == 0 {
		r.violationAt("incomingAssets", "NoIncomingTransfer", "a transaction has at least one incoming transfer")
	}
	for i, t := range tx.IncomingAssets {
		t.check(r.at("incomingAssets").index(i))
	}
	for i, t := range tx.OutgoingAssets {
		t.check(r.at("outgoingAssets").index(i))
	}
	for i, t := range tx.Fee {
		t.check(r.at("fee").index(i))
	}
	tx.Metadata.check(r.at("metadata"))

	for i, e := range tx.Ledger {
		er := r.at("ledger").index(i)
		e.check(er)
		if e.TransactionID != "" && e.TransactionID != tx.ID {
			er.violationAt("transactionId", "LedgerTransactionIdMismatch", "entry belongs to %q, not %q", e.TransactionID, tx.ID)
		}
	}
	tx.checkLedgerDerivation(r)

	if nft := tx.HasNFT(); nft != tx.Metadata.IsNFTTrx {
		r.violationAt("metadata.isNFTTrx", "NftFlagMismatch", "isNFTTrx is %v but nft transferred is %v", tx.Metadata.IsNFTTrx, nft)
	}
	if defi := tx.Protocol != nil; defi != tx.Metadata.IsDefiTrx {
		r.violationAt("metadata.isDefiTrx", "DefiFlagMismatch", "isDefiTrx is %v but protocol present is %v", tx.Metadata.IsDefiTrx, defi)
	}
}

// checkLedgerDerivation verifies that the ledger holds one entry per
// transfer, in transfer order (incoming, outgoing, then fees), each with the
// direction, asset, quantity and account of its transfer.
func (tx Transaction) checkLedgerDerivation(r report) {
	transfers := tx.Transfers()
	if len(tx.Ledger) != len(transfers) {
		r.violationAt("ledger", "LedgerTransferCountMismatch", "%d ledger entries for %d transfers", len(tx.Ledger), len(transfers))
		return
	}
	for i, t := range transfers {
		e, b := tx.Ledger[i], t.Base()
		switch {
		case e.Type != t.Type(), e.Asset.Key() != b.Asset.Key(), !e.Quantity.Equal(b.Quantity):
			r.at("ledger").index(i).violation("LedgerTransferMismatch", "entry is %s %s %s, transfer #%d is %s %s %s", e.Type, e.Quantity, e.Asset.Symbol, i, t.Type(), b.Quantity, b.Asset.Symbol)
		case accountKey(e.Account()) != accountKey(t.Account()):
			r.at("ledger").index(i).violation("LedgerTransferMismatch", "entry posts to %q, transfer #%d to %q", accountKey(e.Account()), i, accountKey(t.Account()))
		}
	}
}

// rawOrNull writes an unknown provider payload as null.
func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

func accountKey(a *AccountType) string {
	if a == nil {
		return ""
	}
	return a.Key()
}

func (m Metadata) check(r report) {
	checkEnum(r, "importSource", m.ImportSource)
	if manual := m.ImportSource == ImportManual; m.ImportSource.Valid() && manual != m.IsManual {
		r.violationAt("isManual", "ManualImportMismatch", "isManual is %v but importSource is %q", m.IsManual, m.ImportSource)
	}
}
