//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.careervibe.app"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "careervibe-data"
	}
	return filepath.Join(home, "Library", "Application Support", "careervibe")
}

func apiKeyHint() string {
	return " or store it in the macOS Keychain (service careervibe, account openrouter_api_key)"
}

// defaultsBackend keeps settings in UserDefaults through the defaults CLI.
type defaultsBackend string

func newPlatformBackend() Backend {
	return defaultsBackend(defaultsDomain)
}

func (d defaultsBackend) run(args ...string) (string, error) {
	out, err := exec.Command("defaults", append([]string{args[0], string(d)}, args[1:]...)...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

func (d defaultsBackend) GetString(key string) (string, bool, error) {
	out, err := d.run("read", key)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, true, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		// defaults exits 1 for a missing key.
		return "", false, nil
	default:
		return "", false, fmt.Errorf("defaults read %s: %w: %s", key, err, out)
	}
}

func (d defaultsBackend) GetInt(key string) (int, bool, error) {
	s, ok, err := d.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s is not an integer: %q", key, s)
	}
	return i, true, nil
}

func (d defaultsBackend) SetString(key, val string) error {
	_, err := d.run("write", key, "-string", val)
	return err
}

func (d defaultsBackend) SetInt(key string, val int) error {
	_, err := d.run("write", key, "-int", strconv.Itoa(val))
	return err
}

func (d defaultsBackend) Delete(key string) error {
	_, err := d.run("delete", key)
	return err
}
