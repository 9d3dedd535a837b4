package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/etnz/kryptos"
	"github.com/etnz/kryptos/renderer"
	"github.com/google/subcommands"
)

type nftsCmd struct {
	spam bool
}

func (*nftsCmd) Name() string     { return "nfts" }
func (*nftsCmd) Synopsis() string { return "list NFT balances by collection" }
func (*nftsCmd) Usage() string {
	return `kpt nfts [-spam] <balances.jsonl>...

  Lists NFT balances grouped by collection. When hideSpam is set in the
  configuration, balances flagged as spam are left out unless -spam is given.
`
}

func (c *nftsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.spam, "spam", false, "Show balances flagged as spam even when hideSpam is set.")
}

func (c *nftsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	var balances []kryptos.NFTBalance
	for _, name := range f.Args() {
		list, _, err := readEntities(name, kryptos.KindNFTBalance)
		if err != nil {
			for _, line := range problemLines(name, err) {
				fmt.Fprintln(os.Stderr, line)
			}
			return subcommands.ExitFailure
		}
		for _, e := range list {
			balances = append(balances, e.(kryptos.NFTBalance))
		}
	}
	shown := visibleNFTs(cfg, balances, c.spam)
	slog.Debug("nft balances", "total", len(balances), "shown", len(shown))
	printMarkdown(renderer.NFTsMarkdown(shown, len(balances)-len(shown)))
	return subcommands.ExitSuccess
}

// visibleNFTs drops the spam flagged balances when the configuration hides
// them, unless showSpam overrides it.
func visibleNFTs(cfg *Config, balances []kryptos.NFTBalance, showSpam bool) []kryptos.NFTBalance {
	if !cfg.HideSpam || showSpam {
		return balances
	}
	return kryptos.FilterSpam(balances, kryptos.NotSpam)
}
