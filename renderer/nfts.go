package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/kryptos"
)

// NFTsMarkdown renders NFT balances grouped by collection, in order of first
// appearance. hidden is the number of balances left out as spam.
func NFTsMarkdown(balances []kryptos.NFTBalance, hidden int) string {
	var (
		order  []string
		groups = make(map[string][]kryptos.NFTBalance)
	)
	for _, b := range balances {
		name := b.Collection.Name
		if name == "" {
			name = b.ContractAddress
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], b)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# NFTs\n\n")
	for _, name := range order {
		fmt.Fprintf(&b, "## %s\n\n", name)
		fmt.Fprintln(&b, "| Token | Name | Standard | Amount | Value |")
		fmt.Fprintln(&b, "|:------|:-----|:---------|-------:|------:|")
		for _, n := range groups[name] {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", n.TokenID, n.Name, n.ErcType, n.Amount, n.Price.Worth(n.Amount))
		}
		fmt.Fprintln(&b)
	}
	if hidden > 0 {
		fmt.Fprintf(&b, "%d spam balances hidden.\n", hidden)
	}
	return b.String()
}
