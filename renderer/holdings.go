// Package renderer turns kryptos values into markdown reports.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/kryptos"
)

// HoldingsMarkdown renders holdings as a table valued in currency, followed by
// the distribution across accounts of every asset held in more than one.
func HoldingsMarkdown(holdings []kryptos.Holding, policy kryptos.LotPolicy, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\nLot policy: %s. Values in %s.\n\n", policy, currency)
	b.WriteString("| Asset | Quantity | Cost Basis | Market Value | Unrealized PnL |\n")
	b.WriteString("|:------|---------:|-----------:|-------------:|---------------:|\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			h.Asset.Symbol,
			h.TotalQuantity,
			h.CostBasis.In(currency),
			h.MarketValue.In(currency),
			h.UnrealizedPnL.In(currency).SignedString(),
		)
	}
	for _, h := range holdings {
		ConditionalBlock(&b, func(w io.Writer) bool { return renderDistribution(w, h) })
	}
	return b.String()
}

func renderDistribution(w io.Writer, h kryptos.Holding) bool {
	if len(h.Distribution) < 2 {
		return false
	}
	fmt.Fprintf(w, "\n## %s by account\n\n", h.Asset.Symbol)
	fmt.Fprintln(w, "| Account | Quantity | Allocation |")
	fmt.Fprintln(w, "|:--------|---------:|-----------:|")
	for _, d := range h.Distribution {
		fmt.Fprintf(w, "| %s | %s | %s |\n", d.Account.Name(), d.Quantity, d.AllocationPercentage)
	}
	return true
}
