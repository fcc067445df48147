package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"addrview/pkg/pager"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
)

const (
	ConfigFileName = ".addrview.json"
	EnvPrefix      = "addrview"
)

// AddressConfig holds a bookmarked address.
type AddressConfig struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Endpoints holds the backend paths, relative to BackendURL.
type Endpoints struct {
	Summary      string `json:"summary"`
	Signed       string `json:"signed"`
	Transactions string `json:"transactions"`
	Contract     string `json:"contract"`
}

// RelayConfig holds settings for the headless summary relay.
type RelayConfig struct {
	Listen  string   `json:"listen"`
	RPCURLs []string `json:"rpc_urls" envconfig:"RPC_URLS"`
}

// Config holds application-wide settings.
type Config struct {
	BackendURL            string          `json:"backend_url" envconfig:"BACKEND_URL"`
	Endpoints             Endpoints       `json:"endpoints"`
	ExplorerURL           string          `json:"explorer_url,omitempty" envconfig:"EXPLORER_URL"`
	Addresses             []AddressConfig `json:"addresses" ignored:"true"`
	PageLength            int             `json:"page_length" envconfig:"PAGE_LENGTH"`
	RequestTimeoutSeconds int             `json:"request_timeout_seconds" envconfig:"REQUEST_TIMEOUT_SECONDS"`
	BalanceDecimals       int             `json:"balance_decimals" envconfig:"BALANCE_DECIMALS"`
	LogLevel              string          `json:"log_level" envconfig:"LOG_LEVEL"`
	LogFile               string          `json:"log_file,omitempty" envconfig:"LOG_FILE"`
	Relay                 RelayConfig     `json:"relay"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BackendURL: "http://localhost:3000",
		Endpoints: Endpoints{
			Summary:      "/web3relay",
			Signed:       "/signed",
			Transactions: "/addr",
			Contract:     "/compile",
		},
		Addresses:       []AddressConfig{},
		PageLength:      pager.DefaultPageSize,
		BalanceDecimals: 4,
		LogLevel:        "info",
		Relay:           RelayConfig{Listen: ":8080"},
	}
}

// RequestTimeout is zero when requests may wait indefinitely.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate reports the first structural problem in c.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("validation failed: invalid backend_url %q", c.BackendURL)
	}
	if !pager.IsAllowedPageSize(c.PageLength) {
		return fmt.Errorf("validation failed: page_length %d is not one of %v", c.PageLength, pager.PageSizes)
	}
	for i, a := range c.Addresses {
		if !common.IsHexAddress(a.Address) {
			return fmt.Errorf("validation failed: address at index %d (%q) is not a hex address", i, a.Address)
		}
	}
	return nil
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfigFromFile loads path, falling back to defaults when it does not
// exist, and applies environment overrides.
func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		cfg := Default()
		return cfg, ApplyEnv(&cfg)
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, err
	}
	return cfg, ApplyEnv(&cfg)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		BackendURL            *string         `json:"backend_url"`
		Endpoints             *Endpoints      `json:"endpoints"`
		ExplorerURL           string          `json:"explorer_url"`
		Addresses             json.RawMessage `json:"addresses"`
		PageLength            *int            `json:"page_length"`
		RequestTimeoutSeconds *int            `json:"request_timeout_seconds"`
		BalanceDecimals       *int            `json:"balance_decimals"`
		LogLevel              *string         `json:"log_level"`
		LogFile               string          `json:"log_file"`
		Relay                 *RelayConfig    `json:"relay"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if raw.BackendURL != nil {
		cfg.BackendURL = strings.TrimRight(*raw.BackendURL, "/")
	}
	if raw.Endpoints != nil {
		mergeEndpoints(&cfg.Endpoints, *raw.Endpoints)
	}
	cfg.ExplorerURL = strings.TrimRight(raw.ExplorerURL, "/")
	cfg.LogFile = raw.LogFile
	if raw.PageLength != nil {
		cfg.PageLength = *raw.PageLength
	}
	if raw.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *raw.RequestTimeoutSeconds
	}
	if raw.BalanceDecimals != nil {
		cfg.BalanceDecimals = *raw.BalanceDecimals
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Relay != nil {
		if raw.Relay.Listen != "" {
			cfg.Relay.Listen = raw.Relay.Listen
		}
		cfg.Relay.RPCURLs = raw.Relay.RPCURLs
	}

	if len(raw.Addresses) > 0 {
		var addresses []AddressConfig
		// Try unmarshal as []AddressConfig
		if err := json.Unmarshal(raw.Addresses, &addresses); err != nil {
			addresses = nil
			// Try unmarshal as []string (legacy)
			var strAddrs []string
			if err2 := json.Unmarshal(raw.Addresses, &strAddrs); err2 == nil {
				for _, a := range strAddrs {
					addresses = append(addresses, AddressConfig{Address: a})
				}
			}
		}
		for _, a := range addresses {
			a.Address = strings.TrimSpace(a.Address)
			if a.Address != "" {
				cfg.Addresses = append(cfg.Addresses, a)
			}
		}
	}

	return cfg, nil
}

func mergeEndpoints(dst *Endpoints, src Endpoints) {
	if src.Summary != "" {
		dst.Summary = src.Summary
	}
	if src.Signed != "" {
		dst.Signed = src.Signed
	}
	if src.Transactions != "" {
		dst.Transactions = src.Transactions
	}
	if src.Contract != "" {
		dst.Contract = src.Contract
	}
}

// ApplyEnv overlays ADDRVIEW_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("error processing environment: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	cfg.ExplorerURL = strings.TrimRight(cfg.ExplorerURL, "/")
	return nil
}

// AddAddress bookmarks address unless it is already present. It reports
// whether the list changed.
func (c *Config) AddAddress(address, name string) bool {
	for _, a := range c.Addresses {
		if strings.EqualFold(a.Address, address) {
			return false
		}
	}
	c.Addresses = append(c.Addresses, AddressConfig{Address: address, Name: name})
	return true
}

func SaveConfig(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
