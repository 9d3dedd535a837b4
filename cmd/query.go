package cmd

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/kryptos"
	"github.com/google/subcommands"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type queryCmd struct {
	kind string
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "extract values from files with a JSONPath expression" }
func (*queryCmd) Usage() string {
	return `kpt query [-kind <kind>] <jsonpath> <file>...

  Evaluates a JSONPath expression on each entity of the files and prints one
  JSON result per entity. With -kind, entities that are not valid entities
  of that kind are skipped.

Usage Examples:
$ kpt query '$.incomingAssets[*].asset.symbol' txs.jsonl
$ kpt query -kind ledger '$[?(@.type=="fee")].quantity' ledger.jsonl
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Only query valid entities of this kind.")
}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	if f.NArg() < 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var kind kryptos.Kind
	if c.kind != "" {
		if kind, err = kryptos.ParseKind(c.kind); err != nil {
			return fail("%v", err)
		}
	}
	path := f.Arg(0)
	eval, err := jsonpath.New(path)
	if err != nil {
		return fail("invalid JSONPath %q: %v", path, err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, name := range f.Args()[1:] {
		docs, err := documents(name)
		if err != nil {
			return fail("%v", err)
		}
		for i, doc := range docs {
			if kind != "" {
				if _, err := kryptos.ParseEntity(kind, doc); err != nil {
					slog.Warn("skipping invalid entity", "file", name, "index", i, "error", err)
					continue
				}
			}
			var v any
			if err := jsonAPI.Unmarshal(doc, &v); err != nil {
				return fail("%s: [%d]: %v", name, i, err)
			}
			res, err := eval(ctx, v)
			if err != nil {
				slog.Debug("no match", "file", name, "index", i, "error", err)
				continue
			}
			data, err := jsonAPI.Marshal(res)
			if err != nil {
				return fail("%v", err)
			}
			fmt.Fprintf(out, "%s\n", data)
		}
	}
	return subcommands.ExitSuccess
}

// documents returns the JSON documents of a file: the file itself, or each
// non blank line of a JSONL file.
func documents(name string) ([][]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if !isJSONL(name) {
		return [][]byte{data}, nil
	}
	var docs [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			docs = append(docs, line)
		}
	}
	return docs, nil
}
