package config

import (
	"fmt"
	"strings"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Ollama  OllamaConfig
	Proxy   ProxyConfig
	Market  MarketConfig
	Storage StorageConfig
	Cards   CardsConfig
	Share   ShareConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type LLMConfig struct {
	Provider string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type ProxyConfig struct {
	OpenRouterAPIKey string
	DefaultModel     string
}

type MarketConfig struct {
	BaseURL   string
	Area      int
	UserAgent string
	// RateLimit is the number of market API requests allowed per second.
	RateLimit int
}

type StorageConfig struct {
	DataDir string
}

type CardsConfig struct {
	CacheTTL   string
	CatalogTTL string
}

type ShareConfig struct {
	BaseURL string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenRouter,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "qwen2.5:7b",
		},
		Proxy: ProxyConfig{
			DefaultModel: "google/gemini-2.0-flash-001",
		},
		Market: MarketConfig{
			BaseURL:   "https://api.hh.ru",
			Area:      113,
			UserAgent: "HH-Vibe-Career-App/1.0",
			RateLimit: 5,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Cards: CardsConfig{
			CacheTTL:   "1h",
			CatalogTTL: "30s",
		},
		Share: ShareConfig{
			BaseURL: "https://hh-vibe.ru",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.careervibe.app) and
// secrets fall back to macOS Keychain.
// On Linux the backend is a YAML file at $XDG_CONFIG_HOME/careervibe/config.yaml
// and secrets live in $XDG_DATA_HOME/careervibe/secrets.json.
//
// Environment variables (CAREERVIBE_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b Backend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	switch cfg.LLM.Provider {
	case ProviderOpenRouter, ProviderOllama:
	default:
		return Config{}, fmt.Errorf("invalid llm.provider %q: want %q or %q", cfg.LLM.Provider, ProviderOpenRouter, ProviderOllama)
	}

	if cfg.Proxy.OpenRouterAPIKey == "" {
		if key, err := kc.Get(keychainService, "openrouter_api_key"); err == nil && key != "" {
			cfg.Proxy.OpenRouterAPIKey = key
		}
	}

	if cfg.LLM.Provider == ProviderOpenRouter && cfg.Proxy.OpenRouterAPIKey == "" {
		return Config{}, fmt.Errorf("missing required config: OpenRouter API key. "+
			"Set CAREERVIBE_OPENROUTER_API_KEY%s, or switch to a local model with llm.provider=ollama", apiKeyHint())
	}

	return cfg, nil
}

const keychainService = "careervibe"

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
