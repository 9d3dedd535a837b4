package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/kryptos"
	"github.com/etnz/kryptos/renderer"
	"github.com/google/subcommands"
	"github.com/xuri/excelize/v2"
)

type taxReportCmd struct {
	ledger    string
	lotPolicy string
	output    string
	year      int
}

func (*taxReportCmd) Name() string     { return "taxreport" }
func (*taxReportCmd) Synopsis() string { return "write the realized tax lots of a ledger to a spreadsheet" }
func (*taxReportCmd) Usage() string {
	return `kpt taxreport -ledger <ledger.jsonl> [-lot-policy fifo|lifo|hifo] [-year <year>] [-o <report.xlsx>]

  Folds the ledger under a lot policy and writes one row per realized lot:
  entry and exit dates, holding period, cost basis, proceeds and profit.
  A summary of the profit per asset is printed.
`
}

func (c *taxReportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "ledger.jsonl", "Ledger file (JSONL format)")
	f.StringVar(&c.lotPolicy, "lot-policy", "", "Lot policy: "+strings.Join(kryptos.LotPolicies(), ", "))
	f.StringVar(&c.output, "o", "taxreport.xlsx", "Output spreadsheet")
	f.IntVar(&c.year, "year", 0, "Only report lots realized this year (UTC)")
}

func (c *taxReportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	aggs, err := aggregate(entries, policy, nil, "")
	if err != nil {
		return fail("%v", err)
	}

	var lots []kryptos.TaxPnL
	for _, a := range aggs {
		for _, t := range a.Realized {
			if c.year == 0 || time.Unix(*t.ExitDate, 0).UTC().Year() == c.year {
				lots = append(lots, t)
			}
		}
	}
	if err := writeTaxReport(c.output, lots); err != nil {
		return fail("could not write %q: %v", c.output, err)
	}
	printMarkdown(renderer.GainsMarkdown(lots, policy, cfg.BaseCurrency))
	fmt.Printf("%d realized lots written to %s\n", len(lots), c.output)
	return subcommands.ExitSuccess
}

var taxHeader = []any{"Asset", "Quantity", "Entry Date", "Exit Date", "Holding Period (days)", "Cost Basis", "Proceeds", "Profit", "Transaction"}

// writeTaxReport writes lots to a spreadsheet, one row per lot.
func writeTaxReport(name string, lots []kryptos.TaxPnL) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Realized"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &taxHeader); err != nil {
		return err
	}
	for i, t := range lots {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		days, _ := t.HoldingPeriodDays()
		row := []any{
			t.Asset.Symbol,
			t.Quantity.Float(),
			date(t.EntryDate),
			date(t.ExitDate),
			days,
			t.CostBasis.Float(),
			t.Proceeds.Float(),
			t.Profit.Float(),
			t.TransactionID,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(name)
}

func date(ts *int64) string {
	if ts == nil {
		return ""
	}
	return time.Unix(*ts, 0).UTC().Format(time.DateOnly)
}
