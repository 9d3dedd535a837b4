// Package cmd implements the kpt CLI application to check and aggregate
// crypto portfolio data.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// commands of kpt, by group.
var commands = []struct {
	group string
	cmd   subcommands.Command
}{
	{"", &topicCmd{}},
	{"files", &validateCmd{}},
	{"files", &fmtCmd{}},
	{"files", &queryCmd{}},
	{"reports", &holdingsCmd{}},
	{"reports", &netValueCmd{}},
	{"reports", &nftsCmd{}},
	{"reports", &taxReportCmd{}},
	{"reference data", &storeCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	for _, r := range commands {
		c.Register(r.cmd, r.group)
	}
}

// IsCommand reports whether name is a builtin command.
func IsCommand(name string) bool {
	switch name {
	case "help", "flags":
		return true
	}
	for _, r := range commands {
		if r.cmd.Name() == name {
			return true
		}
	}
	return false
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file. Defaults to $KPT_CONFIG or kpt.yaml.")
var verbose = flag.Bool("v", false, "Verbose logging. Also set by $KPT_VERBOSE.")

// printMarkdown renders md for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints an error and returns the failure status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
