// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix          = "BITKIT"
	defaultDataDir     = "."
	defaultLogLevel    = "info"
	defaultLSPCacheDir = ""
)

// AppConfig captures runtime configuration for the ledger tooling.
type AppConfig struct {
	// DataDir is where the activity database lives.
	DataDir string
	// LSPCacheDir is where the LSP order cache lives. Empty means
	// alongside the activity database.
	LSPCacheDir string
	LogLevel    string
}

// NewViper returns a viper instance with defaults and env bindings
// configured. Every key is overridable via BITKIT_* environment
// variables, e.g. BITKIT_DATA_DIR.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided
// viper instance.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.dir", defaultDataDir)
	v.SetDefault("lsp.cache_dir", defaultLSPCacheDir)
	v.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		DataDir:     v.GetString("data.dir"),
		LSPCacheDir: v.GetString("lsp.cache_dir"),
		LogLevel:    v.GetString("log.level"),
	}
	if cfg.LSPCacheDir == "" {
		cfg.LSPCacheDir = cfg.DataDir
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data.dir is required")
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		return fmt.Errorf("log.level is required")
	}
	return nil
}
