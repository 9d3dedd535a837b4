package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/kryptos"
	"github.com/etnz/kryptos/store"
	"github.com/google/subcommands"
)

// storeCmd is a container for the reference data store subcommands.
type storeCmd struct{}

func (*storeCmd) Name() string     { return "store" }
func (*storeCmd) Synopsis() string { return "manage the shared reference data store" }
func (*storeCmd) Usage() string {
	return `store <subcommand> [args]

  The reference data store holds assets and NFT collections in Redis, shared
  between processes. Set redis.addr in kpt.yaml or $KPT_REDIS_ADDR.

Commands:
  put - Store the assets and collections of files.
  get - Print stored assets.
`
}

func (c *storeCmd) SetFlags(f *flag.FlagSet) {}
func (c *storeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "store")
	commander.Register(&storePutCmd{}, "")
	commander.Register(&storeGetCmd{}, "")
	return commander.Execute(ctx, args...)
}

// openStore connects to the configured Redis store.
func openStore(ctx context.Context, cfg *Config) (*store.Redis, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("no reference data store: set redis.addr in the configuration or $KPT_REDIS_ADDR")
	}
	return store.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}

type storePutCmd struct{}

func (*storePutCmd) Name() string     { return "put" }
func (*storePutCmd) Synopsis() string { return "store the assets and collections of files" }
func (*storePutCmd) Usage() string {
	return `kpt store put <file>...

  Validates asset and NFT collection files, then stores their content.
`
}
func (*storePutCmd) SetFlags(f *flag.FlagSet) {}

func (*storePutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return fail("%v", err)
	}
	defer s.Close()

	count := 0
	for _, name := range f.Args() {
		list, kind, err := readEntities(name, "")
		if err == nil {
			for _, e := range list {
				err = kryptos.Validate(e)
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			for _, line := range problemLines(name, err) {
				fmt.Fprintln(os.Stderr, line)
			}
			return subcommands.ExitFailure
		}
		for _, e := range list {
			switch e := e.(type) {
			case kryptos.Asset:
				err = s.PutAsset(ctx, e)
			case kryptos.NftCollection:
				err = s.PutCollection(ctx, e)
			default:
				return fail("%s: cannot store a %s", name, kind)
			}
			if err != nil {
				return fail("%v", err)
			}
			count++
		}
	}
	fmt.Printf("Stored %d entities.\n", count)
	return subcommands.ExitSuccess
}

type storeGetCmd struct{}

func (*storeGetCmd) Name() string     { return "get" }
func (*storeGetCmd) Synopsis() string { return "print stored assets" }
func (*storeGetCmd) Usage() string {
	return `kpt store get <asset key>...

  Prints the stored assets as JSONL, with their collection resolved.
`
}
func (*storeGetCmd) SetFlags(f *flag.FlagSet) {}

func (*storeGetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, sync, err := loadConfig()
	if err != nil {
		return fail("%v", err)
	}
	defer sync()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return fail("%v", err)
	}
	defer s.Close()

	assets, err := kryptos.ResolveAssets(ctx, f.Args(), s)
	if err != nil {
		return fail("%v", err)
	}
	if err := kryptos.EncodeJSONL(os.Stdout, assets); err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}
