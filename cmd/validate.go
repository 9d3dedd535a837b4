package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/etnz/kryptos"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
)

type validateCmd struct {
	kind string
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check JSON and JSONL files against the data model" }
func (*validateCmd) Usage() string {
	return `kpt validate [-kind <kind>] <file>...

  Reads each file, one entity per .json file or one per line of a .jsonl
  file, and reports every problem found: malformed or missing fields,
  unknown variants and broken invariants. The kind of entity is guessed
  from its keys unless -kind is given.

  A ledger file is also checked as a history: per asset and account,
  entries must be timestamp-ascending with chained balances.

Usage Examples:
$ kpt validate txs.jsonl
$ kpt validate -kind ledger ledger.jsonl
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Kind of entity in the files, guessed by default.")
}

func (c *validateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var kind kryptos.Kind
	if c.kind != "" {
		if kind, err = kryptos.ParseKind(c.kind); err != nil {
			return fail("%v", err)
		}
	}

	files := f.Args()
	reports := make([][]string, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			reports[i] = validateFile(name, kind)
			return nil
		})
	}
	_ = g.Wait()

	status := subcommands.ExitSuccess
	for i, lines := range reports {
		if len(lines) == 0 {
			fmt.Printf("%s: ok\n", files[i])
			continue
		}
		status = subcommands.ExitFailure
		for _, line := range lines {
			fmt.Println(line)
		}
	}
	return status
}

// validateFile returns the problems of a file, one per line.
func validateFile(name string, kind kryptos.Kind) []string {
	list, kind, err := readEntities(name, kind)
	if err != nil {
		if _, statErr := os.Stat(name); statErr != nil {
			return []string{fmt.Sprintf("%s: %v", name, err)}
		}
		return problemLines(name, err)
	}
	slog.Debug("validating", "file", name, "kind", kind, "entities", len(list))

	if kind == kryptos.KindLedgerEntry {
		entries := make([]kryptos.LedgerEntry, len(list))
		for i, e := range list {
			entries[i] = e.(kryptos.LedgerEntry)
		}
		if err := kryptos.ValidateLedger(entries); err != nil {
			return problemLines(name, err)
		}
		return nil
	}

	var lines []string
	for i, e := range list {
		err := e.Validate()
		if err == nil {
			continue
		}
		prefix := name
		if isJSONL(name) {
			prefix = fmt.Sprintf("%s:[%d]", name, i)
		}
		lines = append(lines, problemLines(prefix, err)...)
	}
	return lines
}
