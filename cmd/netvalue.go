package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/kryptos"
	"github.com/google/subcommands"
)

type netValueCmd struct {
	write bool
}

func (*netValueCmd) Name() string     { return "netvalue" }
func (*netValueCmd) Synopsis() string { return "recompute the net value of DeFi holdings" }
func (*netValueCmd) Usage() string {
	return `kpt netvalue [-w] <holdings.jsonl>...

  Computes the net value of each DeFi holding, its total value minus the
  value of its liabilities, and compares it to the stored one.
  Use -w to store the computed net values.
`
}

func (c *netValueCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.write, "w", false, "Rewrite the files with the computed net values.")
}

func (c *netValueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	var b strings.Builder
	b.WriteString("# Net values\n\n| Holding | Protocol | Category | Total | Net | Stored |\n|:--|:--|:--|--:|--:|:--|\n")
	status := subcommands.ExitSuccess
	for _, name := range f.Args() {
		list, _, err := readEntities(name, kryptos.KindDefiHolding)
		if err != nil {
			for _, line := range problemLines(name, err) {
				fmt.Fprintln(os.Stderr, line)
			}
			status = subcommands.ExitFailure
			continue
		}
		updated := make([]kryptos.Entity, 0, len(list))
		for _, e := range list {
			h := e.(kryptos.DefiHolding)
			n, err := h.WithNetValue()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s: %v\n", name, h.HoldingID, err)
				status = subcommands.ExitFailure
				updated = append(updated, h)
				continue
			}
			stored := "ok"
			if kryptos.HasProblem(h.Validate(), kryptos.InvariantViolation, "NetValueMismatch") {
				stored = fmt.Sprintf("was %s", h.NetValue.Worth(kryptos.Q(1)))
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", h.HoldingID, h.ProtocolName, h.Category, h.TotalValue.Worth(kryptos.Q(1)), n.NetValue.Worth(kryptos.Q(1)), stored)
			updated = append(updated, n)
		}
		if c.write {
			if err := rewrite(name, updated); err != nil {
				return fail("could not write %q: %v", name, err)
			}
		}
	}
	printMarkdown(b.String())
	return status
}

// rewrite writes list back to name, in its format.
func rewrite(name string, list []kryptos.Entity) error {
	var b bytes.Buffer
	if isJSONL(name) || len(list) != 1 {
		if err := kryptos.EncodeJSONL(&b, list); err != nil {
			return err
		}
	} else {
		data, err := list[0].MarshalJSON()
		if err != nil {
			return err
		}
		b.Write(append(data, '\n'))
	}
	return os.WriteFile(name, b.Bytes(), 0644)
}
