package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/etnz/kryptos"
	"github.com/etnz/kryptos/renderer"
	"github.com/google/subcommands"
	"github.com/samber/lo"
)

type holdingsCmd struct {
	ledger    string
	market    string
	lotPolicy string
	asset     string
	asJSON    bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "aggregate a ledger into holdings" }
func (*holdingsCmd) Usage() string {
	return `kpt holdings -ledger <ledger.jsonl> [-market <market.json>] [-lot-policy fifo|lifo|hifo] [-asset <tokenId>]

  Folds the ledger entries, sorted by timestamp, into one holding per asset:
  total quantity, distribution across accounts, cost basis of the open lots
  and unrealized PnL.

  The market file maps token ids to prices:

    {"eth": {"price": 3120.5, "baseCurrency": "USD", "timestamp": 1717200000, "source": "coingecko"}}

  A lot policy is required, from -lot-policy, the lotPolicy configuration or
  $KPT_LOT_POLICY.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "ledger.jsonl", "Ledger file (JSONL format)")
	f.StringVar(&c.market, "market", "", "Market prices file (JSON format)")
	f.StringVar(&c.lotPolicy, "lot-policy", "", "Lot policy: "+strings.Join(kryptos.LotPolicies(), ", "))
	f.StringVar(&c.asset, "asset", "", "Only aggregate this asset (token id)")
	f.BoolVar(&c.asJSON, "json", false, "Print holdings as JSONL instead of a table")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	policy, err := cfg.lotPolicy(c.lotPolicy)
	if err != nil {
		return fail("%v", err)
	}
	entries, err := readLedger(c.ledger)
	if err != nil {
		return fail("could not read ledger %q: %v", c.ledger, err)
	}
	market, err := readMarket(c.market)
	if err != nil {
		return fail("could not read market %q: %v", c.market, err)
	}

	aggs, err := aggregate(entries, policy, market, c.asset)
	if err != nil {
		for _, line := range problemLines(c.ledger, err) {
			fmt.Fprintln(os.Stderr, line)
		}
		return subcommands.ExitFailure
	}
	holdings := lo.Map(aggs, func(a kryptos.Aggregation, _ int) kryptos.Holding { return a.Holding })

	if c.asJSON {
		if err := kryptos.EncodeJSONL(os.Stdout, holdings); err != nil {
			return fail("%v", err)
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.HoldingsMarkdown(holdings, policy, cfg.BaseCurrency))
	return subcommands.ExitSuccess
}

// readMarket reads the market file, if any.
func readMarket(name string) (map[string]kryptos.PriceModel, error) {
	if name == "" {
		return nil, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var prices map[string]kryptos.PriceModel
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// aggregate folds entries into one aggregation per asset, in order of first
// appearance. only restricts it to one token id.
func aggregate(entries []kryptos.LedgerEntry, policy kryptos.LotPolicy, market map[string]kryptos.PriceModel, only string) ([]kryptos.Aggregation, error) {
	assets := lo.UniqBy(lo.Map(entries, func(e kryptos.LedgerEntry, _ int) kryptos.Asset { return e.Asset }), kryptos.Asset.Key)
	if only != "" {
		assets = lo.Filter(assets, func(a kryptos.Asset, _ int) bool { return a.TokenID == only })
		if len(assets) == 0 {
			return nil, fmt.Errorf("asset %q not found in the ledger", only)
		}
	}

	var aggs []kryptos.Aggregation
	for _, a := range assets {
		price, ok := market[a.TokenID]
		if !ok {
			slog.Warn("no market price, valued at zero", "asset", a.Symbol)
		}
		agg, err := kryptos.AggregateHoldings(a, entries, policy, kryptos.Market{Price: price})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Symbol, err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}
