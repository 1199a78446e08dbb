// Package configstore loads and saves the JSON configuration file.
//
// Values resolve in viper's order: explicit Set calls, SMARTBUYER_*
// environment variables, the file, then built-in defaults.
package configstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/settings"
)

// EnvPrefix prefixes environment overrides, e.g. SMARTBUYER_MAX_RETRIES.
const EnvPrefix = "SMARTBUYER"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "config.json"

// Store is a configuration file plus its resolved values.
type Store struct {
	path   string
	v      *viper.Viper
	exists bool
	logger *slog.Logger
}

// Open reads path if it exists. A missing file yields the defaults.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultPath
	}

	s := &Store{path: path, logger: logger.With("component", "configstore")}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	v, err := newViper()
	if err != nil {
		return err
	}

	_, statErr := os.Stat(s.path)
	switch {
	case statErr == nil:
		v.SetConfigFile(s.path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return &apperr.Error{
				Kind:    apperr.KindConfiguration,
				Op:      "load",
				Message: "cannot read " + s.path,
				Cause:   err,
			}
		}
		s.exists = true
		s.logger.Debug("Configuration loaded", "path", s.path)
	case errors.Is(statErr, fs.ErrNotExist):
		s.exists = false
		s.logger.Info("Configuration file not found, using defaults", "path", s.path)
	default:
		return &apperr.Error{Kind: apperr.KindConfiguration, Op: "load", Message: "cannot stat " + s.path, Cause: statErr}
	}

	s.v = v
	return nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults, err := toMap(settings.Default())
	if err != nil {
		return nil, err
	}
	for key, val := range flatten("", defaults) {
		v.SetDefault(key, val)
	}
	return v, nil
}

// toMap converts a settings value into its JSON object form.
func toMap(s settings.Settings) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return m, nil
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// Path returns the configuration file path.
func (s *Store) Path() string { return s.path }

// Exists reports whether the file existed when last loaded.
func (s *Store) Exists() bool { return s.exists }

// Settings decodes and validates the current values.
func (s *Store) Settings() (settings.Settings, error) {
	out, err := s.decode()
	if err != nil {
		return settings.Settings{}, err
	}
	if err := out.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return out, nil
}

func (s *Store) decode() (settings.Settings, error) {
	var out settings.Settings
	if err := s.v.Unmarshal(&out); err != nil {
		return settings.Settings{}, &apperr.Error{Kind: apperr.KindConfiguration, Op: "decode", Message: "invalid value types", Cause: err}
	}
	return out, nil
}

// Keys returns every known key, sorted.
func (s *Store) Keys() []string {
	keys := s.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Get returns the resolved value of key.
func (s *Store) Get(key string) (any, bool) {
	key = strings.ToLower(key)
	if !s.known(key) {
		return nil, false
	}
	return s.v.Get(key), true
}

func (s *Store) known(key string) bool {
	for _, k := range s.v.AllKeys() {
		if k == key || strings.HasPrefix(k, key+".") {
			return true
		}
	}
	return false
}

// Set parses raw as JSON (falling back to a plain string) and assigns it
// to key. The change is rejected if the result does not validate.
// Set does not write the file; call Commit.
func (s *Store) Set(key, raw string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !s.known(key) {
		return apperr.Configuration(key, "unknown configuration key")
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	prev := s.v.Get(key)
	s.v.Set(key, value)
	if _, err := s.Settings(); err != nil {
		s.v.Set(key, prev)
		return err
	}
	s.logger.Debug("Configuration value set", "key", key, "value", value)
	return nil
}

// Commit writes the current values to the file.
func (s *Store) Commit() error {
	current, err := s.Settings()
	if err != nil {
		return err
	}
	return s.Save(current)
}

// Save validates set, writes it to the file and reloads.
func (s *Store) Save(set settings.Settings) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := WriteFile(s.path, set); err != nil {
		return err
	}
	s.logger.Info("Configuration saved", "path", s.path)
	return s.reload()
}

// Load returns the validated settings in path, or the defaults when the
// file does not exist.
func Load(path string) (settings.Settings, error) {
	s, err := Open(path, nil)
	if err != nil {
		return settings.Settings{}, err
	}
	return s.Settings()
}

// WriteFile writes set as indented JSON, replacing path atomically.
func WriteFile(path string, set settings.Settings) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace configuration: %w", err)
	}
	return nil
}
