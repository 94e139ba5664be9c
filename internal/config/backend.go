package config

// Backend is the platform's persistent key/value store for settings:
// UserDefaults on macOS, a YAML file elsewhere. Get methods report ok=false
// for keys that were never set.
type Backend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
