package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/nyxanic/disorder/constants"
)

// EnvPrefix prefixes every environment override, e.g. DISORDER_LEDGER_PATH.
const EnvPrefix = "DISORDER"

type Config struct {
	HTTPListenAddress string `mapstructure:"http_listen_address" json:"http_listen_address"`
	LedgerPath        string `mapstructure:"ledger_path" json:"ledger_path"`
	CompactOnInit     bool   `mapstructure:"compact_on_init" json:"compact_on_init"`
	SyncWrites        bool   `mapstructure:"sync_writes" json:"sync_writes"`
	LogLevel          string `mapstructure:"log_level" json:"log_level"`

	// Verifying key files, raw or hex. An empty path disables the scheme.
	PlonkVerifyingKey   string `mapstructure:"plonk_verifying_key" json:"plonk_verifying_key"`
	Groth16VerifyingKey string `mapstructure:"groth16_verifying_key" json:"groth16_verifying_key"`

	DefaultComputeBudget uint64 `mapstructure:"default_compute_budget" json:"default_compute_budget"`
	MaxComputeBudget     uint64 `mapstructure:"max_compute_budget" json:"max_compute_budget"`
	MaxRequestBytes      int64  `mapstructure:"max_request_bytes" json:"max_request_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPListenAddress:    "127.0.0.1:30080",
		LedgerPath:           ".disorder/ledger",
		CompactOnInit:        false,
		SyncWrites:           true,
		LogLevel:             "info",
		DefaultComputeBudget: constants.Uint64(constants.DefaultComputeBudget),
		MaxComputeBudget:     constants.Uint64(constants.MaxComputeBudget),
		MaxRequestBytes:      64 << 10,
	}
}

// GetConfig reads path, or config.json in the working directory when path is
// empty. A missing default file is not an error; defaults and environment
// overrides still apply.
func GetConfig(path string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("http_listen_address", def.HTTPListenAddress)
	v.SetDefault("ledger_path", def.LedgerPath)
	v.SetDefault("compact_on_init", def.CompactOnInit)
	v.SetDefault("sync_writes", def.SyncWrites)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("plonk_verifying_key", def.PlonkVerifyingKey)
	v.SetDefault("groth16_verifying_key", def.Groth16VerifyingKey)
	v.SetDefault("default_compute_budget", def.DefaultComputeBudget)
	v.SetDefault("max_compute_budget", def.MaxComputeBudget)
	v.SetDefault("max_request_bytes", def.MaxRequestBytes)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result error
	_, port, err := net.SplitHostPort(c.HTTPListenAddress)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("http_listen_address: %w", err))
	} else if p, err := cast.ToIntE(port); err != nil || p < 0 || p > 65535 {
		result = multierror.Append(result, fmt.Errorf("http_listen_address: invalid port %q", port))
	}
	if c.MaxComputeBudget == 0 {
		result = multierror.Append(result, errors.New("max_compute_budget must be positive"))
	}
	if c.DefaultComputeBudget > c.MaxComputeBudget {
		result = multierror.Append(result, fmt.Errorf("default_compute_budget %d exceeds max_compute_budget %d",
			c.DefaultComputeBudget, c.MaxComputeBudget))
	}
	if c.MaxRequestBytes <= 0 {
		result = multierror.Append(result, errors.New("max_request_bytes must be positive"))
	}
	return result
}
