package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for Scout.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Providers map[string]ProviderConfig `json:"providers"`
	Routing   RoutingConfig             `json:"routing"`
	Memory    MemoryConfig              `json:"memory"`
	History   HistoryConfig             `json:"history"`
	Web       WebConfig                 `json:"web"`
	Tools     ToolsConfig               `json:"tools"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path
	DataDir  string `json:"dataDir"`
}

type ProviderConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
	Model   string `json:"model,omitempty"`
}

// RoutingConfig controls how requests are routed between backends.
type RoutingConfig struct {
	// DefaultProvider is a concrete backend name or "auto".
	DefaultProvider string `json:"defaultProvider"`
	// FastProvider answers short prompts when routing automatically.
	FastProvider string `json:"fastProvider"`
	// LongContextProvider answers prompts whose token estimate exceeds
	// TokenThreshold. Optional; when unset everything goes to FastProvider.
	LongContextProvider string `json:"longContextProvider,omitempty"`
	TokenThreshold      int    `json:"tokenThreshold"`
}

type MemoryConfig struct {
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path"`
	SearchLimit int    `json:"searchLimit"` // memories appended per turn
}

type HistoryConfig struct {
	DBPath string `json:"dbPath"`
}

type WebConfig struct {
	NumResults        int  `json:"numResults"`        // pages read per search_and_read (1-5)
	MaxCharsPerPage   int  `json:"maxCharsPerPage"`   // extracted content cap per page
	FetchConcurrency  int  `json:"fetchConcurrency"`  // simultaneous in-flight fetches
	SearchIntervalSec int  `json:"searchIntervalSec"` // minimum spacing between searches
	BrowserFallback   bool `json:"browserFallback"`   // render JS-heavy pages with headless Chrome
}

type ToolsConfig struct {
	// RulesPath optionally points to a YAML file overriding the built-in
	// trigger keyword table.
	RulesPath        string `json:"rulesPath,omitempty"`
	EnableSystemInfo bool   `json:"enableSystemInfo"`
}

// DefaultConfigDir returns the default config directory (~/.scout).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scout"
	}
	return filepath.Join(home, ".scout")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DataDir = ExpandPath(cfg.General.DataDir)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Memory.Path = ExpandPath(cfg.Memory.Path)
	cfg.History.DBPath = ExpandPath(cfg.History.DBPath)
	cfg.Tools.RulesPath = ExpandPath(cfg.Tools.RulesPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Routing.DefaultProvider != "auto" {
		if _, ok := cfg.Providers[cfg.Routing.DefaultProvider]; !ok {
			errs = append(errs, fmt.Sprintf("routing.defaultProvider references unknown provider: %s", cfg.Routing.DefaultProvider))
		}
	}
	if cfg.Routing.FastProvider == "" {
		errs = append(errs, "routing.fastProvider is required")
	} else if _, ok := cfg.Providers[cfg.Routing.FastProvider]; !ok {
		errs = append(errs, fmt.Sprintf("routing.fastProvider references unknown provider: %s", cfg.Routing.FastProvider))
	}
	if cfg.Routing.LongContextProvider != "" {
		if _, ok := cfg.Providers[cfg.Routing.LongContextProvider]; !ok {
			errs = append(errs, fmt.Sprintf("routing.longContextProvider references unknown provider: %s", cfg.Routing.LongContextProvider))
		}
	}
	if cfg.Routing.TokenThreshold < 1 {
		errs = append(errs, "routing.tokenThreshold must be >= 1")
	}

	if cfg.Web.NumResults < 1 || cfg.Web.NumResults > 5 {
		errs = append(errs, "web.numResults must be between 1 and 5")
	}
	if cfg.Web.MaxCharsPerPage < 100 {
		errs = append(errs, "web.maxCharsPerPage must be >= 100")
	}
	if cfg.Web.FetchConcurrency < 1 || cfg.Web.FetchConcurrency > 3 {
		errs = append(errs, "web.fetchConcurrency must be between 1 and 3")
	}
	if cfg.Web.SearchIntervalSec < 0 {
		errs = append(errs, "web.searchIntervalSec must be >= 0")
	}

	if cfg.Memory.SearchLimit < 1 {
		errs = append(errs, "memory.searchLimit must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
