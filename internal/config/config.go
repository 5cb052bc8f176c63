// Package config loads service configuration from a JSON config file,
// a local .env file, and REQMINE_* environment variables, in increasing
// order of precedence.
package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Mining  MiningConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
	// APIToken protects the HTTP API. Secret: env-only, never written to
	// the config file.
	APIToken string
}

type OllamaConfig struct {
	BaseURL   string
	FastModel string
	DeepModel string
}

type StorageConfig struct {
	DataDir string
}

type MiningConfig struct {
	MaxClarificationRounds int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4100,
			MCPPort: 4101,
		},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			FastModel: "phi3.5",
			DeepModel: "mistral-nemo",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Mining: MiningConfig{
			MaxClarificationRounds: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/reqmine/config.json, then applies overrides from a
// .env file in the working directory (if present) and REQMINE_*
// environment variables.
func Load() (Config, error) {
	// Missing .env is fine; real environment always wins over it.
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}
