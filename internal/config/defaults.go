package config

import "path/filepath"

// Defaults returns a config populated with sensible defaults. Load unmarshals
// on top of this, so only the values present in the file override it.
func Defaults() *Config {
	dataDir := DefaultConfigDir()
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			DataDir:  dataDir,
		},
		Providers: map[string]ProviderConfig{
			"groq": {
				Enabled: true,
				APIKey:  "${GROQ_API_KEY}",
				APIBase: "https://api.groq.com/openai/v1",
				Model:   "llama-3.3-70b-versatile",
			},
			"gemini": {
				Enabled: true,
				APIKey:  "${GEMINI_API_KEY}",
				APIBase: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-2.0-flash",
			},
		},
		Routing: RoutingConfig{
			DefaultProvider:     "auto",
			FastProvider:        "groq",
			LongContextProvider: "gemini",
			TokenThreshold:      1000,
		},
		Memory: MemoryConfig{
			Enabled:     true,
			Path:        filepath.Join(dataDir, "memory.json"),
			SearchLimit: 3,
		},
		History: HistoryConfig{
			DBPath: filepath.Join(dataDir, "history.db"),
		},
		Web: WebConfig{
			NumResults:        3,
			MaxCharsPerPage:   5000,
			FetchConcurrency:  3,
			SearchIntervalSec: 2,
			BrowserFallback:   false,
		},
		Tools: ToolsConfig{
			EnableSystemInfo: true,
		},
	}
}
