package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/kryptos"
	jsoniter "github.com/json-iterator/go"
)

// isJSONL reports whether name holds one entity per line.
func isJSONL(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".jsonl")
}

// sniffKind guesses the kind of an entity from its keys.
func sniffKind(data []byte) (kryptos.Kind, error) {
	has := func(key string) bool {
		return jsoniter.Get(data, key).ValueType() != jsoniter.InvalidValue
	}
	switch {
	case has("holdingId"):
		return kryptos.KindDefiHolding, nil
	case has("incomingAssets"):
		return kryptos.KindTransaction, nil
	case has("beforeBalance"):
		return kryptos.KindLedgerEntry, nil
	case has("assetDistribution"):
		return kryptos.KindHolding, nil
	case has("ercType"):
		return kryptos.KindNFTBalance, nil
	case has("Asset"):
		return kryptos.KindTaxPnL, nil
	case has("positionId"):
		return kryptos.KindDerivative, nil
	case has("collection_id"):
		return kryptos.KindNftCollection, nil
	case has("category") && !has("symbol"):
		return kryptos.KindPortfolio, nil
	case has("symbol"):
		return kryptos.KindAsset, nil
	case has("asset") && has("type"):
		return kryptos.KindTransfer, nil
	case has("baseCurrency"):
		return kryptos.KindPrice, nil
	case has("provider"):
		return kryptos.KindAccount, nil
	}
	return "", fmt.Errorf("cannot guess the kind of the entity, use -kind")
}

// firstLine returns the first non blank line of data.
func firstLine(data []byte) []byte {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}

// readEntities reads every entity of a JSON or JSONL file. An empty kind is
// guessed from the content.
func readEntities(name string, kind kryptos.Kind) ([]kryptos.Entity, kryptos.Kind, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, kind, err
	}
	if kind == "" {
		sample := data
		if isJSONL(name) {
			sample = firstLine(data)
		}
		if kind, err = sniffKind(sample); err != nil {
			return nil, kind, fmt.Errorf("%s: %w", name, err)
		}
	}
	if isJSONL(name) {
		list, err := kryptos.DecodeJSONL(kind, bytes.NewReader(data))
		return list, kind, err
	}
	e, err := kryptos.DecodeEntity(kind, data)
	if e == nil {
		return nil, kind, err
	}
	return []kryptos.Entity{e}, kind, err
}

// readLedger reads a JSONL file of ledger entries.
func readLedger(name string) ([]kryptos.LedgerEntry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return kryptos.DecodeLedgerEntries(f)
}

// problemLines formats the problems of err, one per line, prefixed by name.
func problemLines(name string, err error) []string {
	problems := kryptos.Problems(err)
	if len(problems) == 0 {
		return []string{fmt.Sprintf("%s: %v", name, err)}
	}
	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		lines = append(lines, fmt.Sprintf("%s: %v", name, p))
	}
	return lines
}
