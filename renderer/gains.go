package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/kryptos"
)

// GainsMarkdown renders the realized profit of lots per asset, in order of
// first appearance, and their total.
func GainsMarkdown(lots []kryptos.TaxPnL, policy kryptos.LotPolicy, currency string) string {
	var (
		order   []string
		profits = make(map[string]kryptos.Quantity)
		total   kryptos.Quantity
	)
	for _, t := range lots {
		if _, ok := profits[t.Asset.Symbol]; !ok {
			order = append(order, t.Asset.Symbol)
		}
		profits[t.Asset.Symbol] = profits[t.Asset.Symbol].Add(t.Profit)
		total = total.Add(t.Profit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Realized gains\n\nLot policy: %s.\n\n", policy)
	fmt.Fprintln(&b, "| Asset | Profit |")
	fmt.Fprintln(&b, "|:------|-------:|")
	for _, s := range order {
		fmt.Fprintf(&b, "| %s | %s |\n", s, profits[s].In(currency).SignedString())
	}
	fmt.Fprintf(&b, "| **%s** | **%s** |\n", "Total", total.In(currency).SignedString())
	return b.String()
}
