// Command kpt checks and aggregates crypto portfolio data files.
//
// Run "kpt help" for the list of commands, and "kpt topic" for the
// documentation. An unknown command <name> runs the kpt-<name> executable
// found in PATH, if any.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/kryptos/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Complete()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	if sub := flag.Arg(0); sub != "" && !cmd.IsCommand(sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
