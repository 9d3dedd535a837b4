package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/etnz/kryptos"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the kpt configuration, read from kpt.yaml. Environment variables,
// possibly set in a .env file, take precedence over the file.
type Config struct {
	// LotPolicy is one of fifo, lifo or hifo. There is no default.
	LotPolicy string `yaml:"lotPolicy"`
	// BaseCurrency values reports, USD by default.
	BaseCurrency string `yaml:"baseCurrency"`
	// HideSpam drops NFT balances flagged as spam from the nfts report.
	HideSpam bool `yaml:"hideSpam"`
	// Verbose enables debug logging.
	Verbose bool        `yaml:"verbose"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig locates the reference data store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const defaultConfigFile = "kpt.yaml"

// LoadConfig reads the configuration file, then applies the environment.
// A missing file is not an error, unless it was named explicitly.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigFile
	}

	cfg := &Config{BaseCurrency: "USD"}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", path, err)
		}
	}

	if v := os.Getenv(EnvLotPolicy); v != "" {
		cfg.LotPolicy = v
	}
	if v := os.Getenv(EnvBaseCurrency); v != "" {
		cfg.BaseCurrency = v
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KPT_VERBOSE %q: %w", v, err)
		}
		cfg.Verbose = b
	}
	if v := os.Getenv("KPT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KPT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if !kryptos.ValidateCurrency(cfg.BaseCurrency) {
		return nil, fmt.Errorf("invalid base currency %q", cfg.BaseCurrency)
	}
	return cfg, nil
}

// lotPolicy returns the policy named by flag, or else by the configuration.
func (c *Config) lotPolicy(flag string) (kryptos.LotPolicy, error) {
	name := flag
	if name == "" {
		name = c.LotPolicy
	}
	if name == "" {
		return nil, kryptos.ErrNoLotPolicy
	}
	return kryptos.ParseLotPolicy(name)
}

// loadConfig loads the configuration named by the global flags and sets up
// logging accordingly. The returned func flushes the logs.
func loadConfig() (*Config, func(), error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, func() {}, err
	}
	sync, err := setupLogging(cfg.Verbose || *verbose)
	if err != nil {
		return nil, func() {}, err
	}
	slog.Debug("configuration loaded", "lotPolicy", cfg.LotPolicy, "baseCurrency", cfg.BaseCurrency, "redis", cfg.Redis.Addr)
	return cfg, sync, nil
}
