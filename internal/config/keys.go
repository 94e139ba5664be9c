package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// key binds a dotted config name to its environment variable and to the
// Config field it fills. field returns a *string or an *int.
type key struct {
	name     string
	env      string
	secret   bool
	field    func(*Config) any
	validate func(string) error
}

var keys = []key{
	{name: "server.port", env: "CAREERVIBE_SERVER_PORT", field: func(c *Config) any { return &c.Server.Port }},
	{name: "llm.provider", env: "CAREERVIBE_LLM_PROVIDER", field: func(c *Config) any { return &c.LLM.Provider }, validate: validProvider},
	{name: "ollama.base_url", env: "CAREERVIBE_OLLAMA_BASE_URL", field: func(c *Config) any { return &c.Ollama.BaseURL }},
	{name: "ollama.model", env: "CAREERVIBE_OLLAMA_MODEL", field: func(c *Config) any { return &c.Ollama.Model }},
	{name: "proxy.openrouter_api_key", env: "CAREERVIBE_OPENROUTER_API_KEY", secret: true, field: func(c *Config) any { return &c.Proxy.OpenRouterAPIKey }},
	{name: "proxy.default_model", env: "CAREERVIBE_PROXY_DEFAULT_MODEL", field: func(c *Config) any { return &c.Proxy.DefaultModel }},
	{name: "market.base_url", env: "CAREERVIBE_MARKET_BASE_URL", field: func(c *Config) any { return &c.Market.BaseURL }},
	{name: "market.area", env: "CAREERVIBE_MARKET_AREA", field: func(c *Config) any { return &c.Market.Area }},
	{name: "market.user_agent", env: "CAREERVIBE_MARKET_USER_AGENT", field: func(c *Config) any { return &c.Market.UserAgent }},
	{name: "market.rate_limit", env: "CAREERVIBE_MARKET_RATE_LIMIT", field: func(c *Config) any { return &c.Market.RateLimit }},
	{name: "storage.data_dir", env: "CAREERVIBE_STORAGE_DATA_DIR", field: func(c *Config) any { return &c.Storage.DataDir }},
	{name: "cards.cache_ttl", env: "CAREERVIBE_CARDS_CACHE_TTL", field: func(c *Config) any { return &c.Cards.CacheTTL }, validate: validDuration},
	{name: "cards.catalog_ttl", env: "CAREERVIBE_CARDS_CATALOG_TTL", field: func(c *Config) any { return &c.Cards.CatalogTTL }, validate: validDuration},
	{name: "share.base_url", env: "CAREERVIBE_SHARE_BASE_URL", field: func(c *Config) any { return &c.Share.BaseURL }},
	{name: "log.level", env: "CAREERVIBE_LOG_LEVEL", field: func(c *Config) any { return &c.Log.Level }},
}

func lookupKey(name string) (key, bool) {
	for _, k := range keys {
		if k.name == name {
			return k, true
		}
	}
	return key{}, false
}

func validProvider(v string) error {
	if v != ProviderOpenRouter && v != ProviderOllama {
		return fmt.Errorf("want %q or %q", ProviderOpenRouter, ProviderOllama)
	}
	return nil
}

func validDuration(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

// value renders the field for display.
func (k key) value(cfg *Config) string {
	switch p := k.field(cfg).(type) {
	case *string:
		return *p
	case *int:
		return strconv.Itoa(*p)
	}
	return ""
}

func applyBackend(cfg *Config, b Backend) error {
	for _, k := range keys {
		if k.secret {
			continue
		}
		var (
			ok  bool
			err error
		)
		switch p := k.field(cfg).(type) {
		case *string:
			var v string
			if v, ok, err = b.GetString(k.name); ok && err == nil {
				*p = v
			}
		case *int:
			var v int
			if v, ok, err = b.GetInt(k.name); ok && err == nil {
				*p = v
			}
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", k.name, err)
		}
	}
	return nil
}

// applyEnv overrides fields from CAREERVIBE_* variables. Unparseable
// integers are reported and skipped.
func applyEnv(cfg *Config) {
	for _, k := range keys {
		raw := os.Getenv(k.env)
		if raw == "" {
			continue
		}
		switch p := k.field(cfg).(type) {
		case *string:
			*p = raw
		case *int:
			i, err := strconv.Atoi(raw)
			if err != nil {
				slog.Warn("ignoring non-integer environment value", "env", k.env, "value", raw)
				continue
			}
			*p = i
		}
	}
}
