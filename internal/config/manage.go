package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll lists every non-secret key with its effective value.
func ShowAll(cfg Config) []KeyInfo {
	var out []KeyInfo
	for _, k := range keys {
		if k.secret {
			continue
		}
		out = append(out, KeyInfo{Key: k.name, EnvVar: k.env, Value: k.value(&cfg)})
	}
	return out
}

// ValidKeys returns the names accepted by SetKey and UnsetKey.
func ValidKeys() []string {
	var names []string
	for _, k := range keys {
		if !k.secret {
			names = append(names, k.name)
		}
	}
	return names
}

// SetKey validates value and persists it in the platform backend.
func SetKey(name, value string) error {
	return setKeyWith(newPlatformBackend(), name, value)
}

// UnsetKey removes a persisted value so the default applies again.
func UnsetKey(name string) error {
	return unsetKeyWith(newPlatformBackend(), name)
}

func settable(name string) (key, error) {
	k, ok := lookupKey(name)
	if !ok {
		return key{}, fmt.Errorf("unknown config key %q", name)
	}
	if k.secret {
		return key{}, fmt.Errorf("%s is a secret; set it with the %s environment variable", name, k.env)
	}
	return k, nil
}

func setKeyWith(b Backend, name, value string) error {
	k, err := settable(name)
	if err != nil {
		return err
	}
	if k.validate != nil {
		if err := k.validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	var cfg Config
	switch k.field(&cfg).(type) {
	case *int:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: not an integer", name)
		}
		return b.SetInt(name, i)
	default:
		return b.SetString(name, value)
	}
}

func unsetKeyWith(b Backend, name string) error {
	if _, err := settable(name); err != nil {
		return err
	}
	return b.Delete(name)
}
