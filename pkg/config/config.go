package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config manages service configuration
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a new configuration manager with engine defaults.
func New() *Config {
	return &Config{
		values: map[string]string{
			"server.host":          "0.0.0.0",
			"server.port":          "8080",
			"metadata.storage":     "none",
			"metadata.db.host":     "",
			"metadata.db.port":     "5432",
			"metadata.db.name":     "",
			"metadata.db.user":     "",
			"metadata.db.password": "",
			"log.debug":            "false",
		},
	}
}

// FromEnv creates a configuration manager seeded with defaults and overlaid
// with GQE_* environment variables; GQE_METADATA_DB_HOST maps to
// metadata.db.host.
func FromEnv() *Config {
	c := New()
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "GQE_") {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, "GQE_"), "_", "."))
		c.Set(key, value)
	}
	return c
}

// Get retrieves a configuration value
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetInt retrieves a configuration value as an integer, or the fallback when
// unset or malformed.
func (c *Config) GetInt(key string, fallback int) int {
	v := c.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool retrieves a configuration value as a boolean. Unset or malformed
// values are false.
func (c *Config) GetBool(key string) bool {
	v, err := strconv.ParseBool(c.Get(key))
	return err == nil && v
}

// Set stores a single configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// GetAll returns a copy of all configuration values
func (c *Config) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Update updates configuration values
func (c *Config) Update(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		c.values[k] = v
	}
}
