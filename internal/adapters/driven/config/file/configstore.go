// Package file implements the TOML configuration store. Configuration
// lives at ~/.mantis/config.toml, is flattened into dot-notation keys, and
// can be hot-reloaded through a filesystem watch.
package file

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Well-known configuration keys.
const (
	// KeyFrontendURL is the frontend serving space embeds.
	KeyFrontendURL = "backend.frontend_url"

	// KeySDKURL is the backend API base URL.
	KeySDKURL = "backend.sdk_url"

	// KeyWSURL is the websocket base URL for log streams. Derived from
	// the SDK URL when unset.
	KeyWSURL = "backend.ws_url"

	// KeyCookieDomain is the domain whose session cookies authenticate
	// space creation.
	KeyCookieDomain = "auth.cookie_domain"

	// KeySessionCookie is the backend session cookie value.
	KeySessionCookie = "auth.sessionid"

	// KeyCSRFCookie is the backend CSRF cookie value, when the deployment
	// sets one.
	KeyCSRFCookie = "auth.csrftoken"

	// KeyGoogleAPIKey authenticates the Custom Search API.
	KeyGoogleAPIKey = "google.api_key"

	// KeyGoogleDocsToken is an OAuth access token with Docs read scope,
	// used by the Google Docs connection.
	KeyGoogleDocsToken = "google.docs_token"

	// KeySearchEngineID selects the programmable search engine.
	KeySearchEngineID = "google.search_engine_id"

	// KeySerpAPIKey authenticates the proxied Scholar searches.
	KeySerpAPIKey = "scholar.serpapi_key"

	// KeyGitHubToken authenticates commit-history reads.
	KeyGitHubToken = "github.token"

	// KeyPollIntervalMS overrides the task/space-id polling interval.
	KeyPollIntervalMS = "protocol.poll_interval_ms"

	// KeyMaxPollAttempts bounds the polling loops; zero polls until the
	// context is cancelled.
	KeyMaxPollAttempts = "protocol.max_poll_attempts"

	// KeyReconnectDelayMS overrides the log stream reconnect delay.
	KeyReconnectDelayMS = "protocol.reconnect_delay_ms"
)

// defaults apply when the config file does not set a key.
var defaults = map[string]any{
	KeyFrontendURL:  "http://localhost:3000",
	KeySDKURL:       "http://localhost:8000",
	KeyCookieDomain: "localhost",
}

// ConfigStore is a file-based TOML configuration store.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML config store. If configDir is empty it
// defaults to ~/.mantis.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".mantis")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key, falling back to the
// built-in defaults.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if val, ok := s.data[key]; ok {
		return val, true
	}
	val, ok := defaults[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers decode as int64.
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetDuration reads a millisecond-valued key as a duration. Zero when
// unset or non-positive.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	ms := s.GetInt(key)
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(unflattenMap(s.data))
	if err != nil {
		return err
	}

	// Restricted permissions; the file holds API keys and cookies.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file. A missing file is an
// empty configuration, not an error.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap converts nested maps to dot-notation keys, so
// {"backend": {"sdk_url": x}} reads as "backend.sdk_url".
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// unflattenMap is the inverse of flattenMap, rebuilding the TOML table
// structure for serialisation.
func unflattenMap(m map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		parts := splitKey(key)
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	return result
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}
