package kryptos

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Entity is any top level value of the model.
type Entity interface {
	json.Marshaler
	Validate() error
}

// Kind names an entity type, for tools reading files of a given kind.
type Kind string

const (
	KindAsset         Kind = "asset"
	KindNftCollection Kind = "nft-collection"
	KindAccount       Kind = "account"
	KindPrice         Kind = "price"
	KindTransfer      Kind = "transfer"
	KindLedgerEntry   Kind = "ledger"
	KindTransaction   Kind = "transaction"
	KindHolding       Kind = "holding"
	KindPortfolio     Kind = "portfolio"
	KindDerivative    Kind = "derivative"
	KindDefiHolding   Kind = "defi-holding"
	KindNFTBalance    Kind = "nft-balance"
	KindTaxPnL        Kind = "tax-pnl"
)

var kinds = []Kind{KindAsset, KindNftCollection, KindAccount, KindPrice, KindTransfer, KindLedgerEntry, KindTransaction, KindHolding, KindPortfolio, KindDerivative, KindDefiHolding, KindNFTBalance, KindTaxPnL}

// Kinds returns every kind, in declaration order.
func Kinds() []Kind { return slices.Clone(kinds) }

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if !slices.Contains(kinds, k) {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// entityDecoder returns the field decoder of kind.
func entityDecoder(kind Kind) (func(*fields) Entity, error) {
	switch kind {
	case KindAsset:
		return as(decodeAsset), nil
	case KindNftCollection:
		return as(decodeNftCollection), nil
	case KindAccount:
		return as(decodeAccount), nil
	case KindPrice:
		return as(decodePrice), nil
	case KindTransfer:
		return as(decodeTransfer), nil
	case KindLedgerEntry:
		return as(decodeLedgerEntry), nil
	case KindTransaction:
		return as(decodeTransaction), nil
	case KindHolding:
		return as(decodeHolding), nil
	case KindPortfolio:
		return as(decodePortfolio), nil
	case KindDerivative:
		return as(decodeDerivative), nil
	case KindDefiHolding:
		return as(decodeDefiHolding), nil
	case KindNFTBalance:
		return as(decodeNFTBalance), nil
	case KindTaxPnL:
		return as(decodeTaxPnL), nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// as adapts a typed decoder to return an Entity. A nil union stays nil.
func as[T Entity](decode func(*fields) T) func(*fields) Entity {
	return func(f *fields) Entity {
		v := decode(f)
		if any(v) == nil {
			return nil
		}
		return v
	}
}

// DecodeEntity decodes data as an entity of the given kind. The error
// aggregates every structural problem found, see Problems.
func DecodeEntity(kind Kind, data []byte) (Entity, error) {
	decode, err := entityDecoder(kind)
	if err != nil {
		return nil, err
	}
	return decodeWith(data, decode)
}

// ParseEntity decodes then validates data. Validation only runs on a
// structurally sound value.
func ParseEntity(kind Kind, data []byte) (Entity, error) {
	e, err := DecodeEntity(kind, data)
	if err != nil {
		return e, err
	}
	return e, e.Validate()
}

// maxLineSize bounds a JSONL line; raw provider payloads can be large.
const maxLineSize = 16 << 20

// DecodeJSONL decodes one entity of kind per non empty line of r, in file
// order. Problems are reported with the line index as path prefix, e.g.
// "[3].incomingAssets[0].toAccount", and do not stop the reading.
func DecodeJSONL(kind Kind, r io.Reader) ([]Entity, error) {
	decode, err := entityDecoder(kind)
	if err != nil {
		return nil, err
	}
	return decodeLines(r, decode)
}

func decodeLines[T any](r io.Reader, decode func(*fields) T) ([]T, error) {
	rep := newReport()
	var list []T
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for line := 0; scanner.Scan(); line++ {
		data := scanner.Bytes()
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}
		if f := decodeFields(rep.index(line), data); f != nil {
			list = append(list, decode(f))
		}
	}
	if err := scanner.Err(); err != nil {
		return list, fmt.Errorf("error reading from input: %w", err)
	}
	return list, rep.err()
}

// DecodeTransactions reads a JSONL stream of transactions.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	return decodeLines(r, decodeTransaction)
}

// DecodeLedgerEntries reads a JSONL stream of ledger entries.
func DecodeLedgerEntries(r io.Reader) ([]LedgerEntry, error) {
	return decodeLines(r, decodeLedgerEntry)
}

// EncodeJSONL writes each value on its own line.
func EncodeJSONL[T json.Marshaler](w io.Writer, list []T) error {
	for i, v := range list {
		data, err := v.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal line %d: %w", i, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write line %d: %w", i, err)
		}
	}
	return nil
}

// EncodeTransactions writes transactions in JSONL format.
func EncodeTransactions(w io.Writer, txs []Transaction) error { return EncodeJSONL(w, txs) }

// EncodeLedgerEntries writes ledger entries in JSONL format.
func EncodeLedgerEntries(w io.Writer, entries []LedgerEntry) error { return EncodeJSONL(w, entries) }
