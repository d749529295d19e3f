package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultRPCURL = "https://eth.llamarpc.com"

	configFile   = "config.json"
	walletsFile  = "wallets.json"
	registryFile = "registry.json"
)

// Config holds all allowctl configuration.
type Config struct {
	RPCURL        string `json:"rpc_url"`
	ChainID       int64  `json:"chain_id"`       // expected network; 0 = don't check
	DefaultWallet string `json:"default_wallet"` // the "connected" account
	SortByRisk    bool   `json:"sort_by_risk"`

	// internal: config dir path used for Save()
	configDir string
}

// Load reads config from dir (or creates defaults). dir defaults to ~/.allowctl.
// A missing or unreadable config file is not fatal: defaults are used so the
// tool always starts.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".allowctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return defaults(dir), nil
	}
	cfg.configDir = dir
	if cfg.RPCURL == "" {
		cfg.RPCURL = defaultRPCURL
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the wallets.json path.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// RegistryPath returns the registry.json path (custom tokens + spender state).
func (c *Config) RegistryPath() string {
	return filepath.Join(c.configDir, registryFile)
}

func defaults(dir string) *Config {
	return &Config{
		RPCURL:    defaultRPCURL,
		ChainID:   1,
		configDir: dir,
	}
}
