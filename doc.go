// Package kryptos is the data model of a crypto portfolio tracker: assets,
// accounts, transfers, transactions, the ledger, holdings, tax lots, DeFi
// positions and NFT balances.
//
// The model is local-first and auditable:
//   - Strict JSON: every entity reads and writes its canonical JSON form.
//     Reading never stops at the first problem; every Problem is reported
//     with the path of the offending field.
//   - Validation: Validate checks the invariants that tie fields together,
//     such as balances, profits, allocations and net values.
//   - Ledger: transactions derive immutable ledger entries. Edits append,
//     they never modify.
//   - Aggregation: AggregateHoldings turns timestamp-ascending ledger entries
//     into a Holding, under an explicit LotPolicy.
//   - Persistence: entities are stored one per file, or one per line in JSONL
//     files, see DecodeJSONL and EncodeJSONL.
//
// This package serves as the foundational logic for the kpt command-line
// tool.
package kryptos
