package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// Store drivers.
const (
	DriverPostgres  = "postgres"
	DriverPostgREST = "postgrest"
	DriverValkey    = "valkey"
	DriverBolt      = "bolt"
	DriverMemory    = "memory"
)

// Config holds the corpusdex configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Store       StoreConfig       `yaml:"store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Search      SearchConfig      `yaml:"search"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBatchSize    int `yaml:"max_batch_size"`
}

// StoreConfig holds document store settings. Which fields matter depends on Driver.
type StoreConfig struct {
	Driver string `yaml:"driver"` // postgres, postgrest, valkey, bolt, memory (default: postgres)
	// URL is the Postgres DSN or the PostgREST project URL.
	URL string `yaml:"url"`
	// Key is the PostgREST service key.
	Key      string   `yaml:"key"`
	Addrs    []string `yaml:"addrs"` // valkey
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Path     string   `yaml:"path"` // bolt

	Table    string `yaml:"table"`
	Function string `yaml:"function"`
	Migrate  bool   `yaml:"migrate"`
	MaxConns int32  `yaml:"max_conns"`
	PageSize int    `yaml:"page_size"`

	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int    `yaml:"hnsw_ef_runtime"`

	ReadinessTimeout int `yaml:"readiness_timeout_sec"`
	CallTimeoutSec   int `yaml:"call_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider       string      `yaml:"provider"`
	APIKey         string      `yaml:"api_key"`
	BaseURL        string      `yaml:"base_url"`
	Model          string      `yaml:"model"`
	Dimensions     int         `yaml:"dimensions"`
	CallTimeoutSec int         `yaml:"call_timeout_sec"`
	Cache          CacheConfig `yaml:"cache"`
}

// CacheConfig controls the embedding cache decorator.
// Regeneration bypasses lookups and overwrites entries with recomputed vectors.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultThreshold float64 `yaml:"default_threshold"`
	DefaultLimit     int     `yaml:"default_limit"`
}

// MaintenanceConfig holds maintenance run settings.
type MaintenanceConfig struct {
	Workers              int  `yaml:"workers"`
	SampleSize           int  `yaml:"sample_size"`
	RenormalizeTruncated bool `yaml:"renormalize_truncated"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	Deduplicate bool `yaml:"deduplicate"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBatchSize <= 0 {
		c.HTTP.MaxBatchSize = 100
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = DriverPostgres
	}
	if c.Store.Table == "" {
		c.Store.Table = "documents"
	}
	if c.Store.Function == "" {
		c.Store.Function = "match_documents"
	}
	if c.Store.PageSize <= 0 {
		c.Store.PageSize = 1000
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "corpus:"
	}
	if c.Store.HNSWM <= 0 {
		c.Store.HNSWM = 16
	}
	if c.Store.HNSWEFConstruct <= 0 {
		c.Store.HNSWEFConstruct = 200
	}
	if c.Store.HNSWEFRuntime <= 0 {
		c.Store.HNSWEFRuntime = 100
	}
	if c.Store.Path == "" {
		c.Store.Path = "corpusdex.db"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.CallTimeoutSec <= 0 {
		c.Store.CallTimeoutSec = 30
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = domain.DefaultEmbeddingModel
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = domain.CanonicalDimension
	}
	if c.Embedding.CallTimeoutSec <= 0 {
		c.Embedding.CallTimeoutSec = 30
	}

	if c.Search.DefaultThreshold == 0 {
		c.Search.DefaultThreshold = 0.1
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 5
	}

	if c.Maintenance.Workers <= 0 {
		c.Maintenance.Workers = 1
	}
	if c.Maintenance.SampleSize == 0 {
		c.Maintenance.SampleSize = 5
	}
}

// Validate checks the configuration for correctness.
// Missing secrets are not reported here; they surface as configuration errors on first use.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverPostgREST, DriverBolt, DriverMemory:
	case DriverValkey:
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the valkey driver")
		}
	default:
		return fmt.Errorf("store.driver must be one of postgres, postgrest, valkey, bolt, memory, got %q", c.Store.Driver)
	}
	if c.Embedding.Dimensions != domain.CanonicalDimension {
		return fmt.Errorf("embedding.dimensions is pinned to %d, got %d", domain.CanonicalDimension, c.Embedding.Dimensions)
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold >= 1 {
		return fmt.Errorf("search.default_threshold must be in [0, 1), got %v", c.Search.DefaultThreshold)
	}
	if c.Embedding.Cache.Enabled && c.Store.Driver != DriverValkey &&
		c.Store.Driver != DriverBolt && c.Store.Driver != DriverMemory {
		return fmt.Errorf("embedding.cache requires a key-value capable store (valkey, bolt, memory), got %q", c.Store.Driver)
	}
	return nil
}

// Credentials builds the immutable credential set for the configured driver.
func (c *Config) Credentials() domain.Credentials {
	creds := domain.Credentials{
		EmbeddingAPIKey: c.Embedding.APIKey,
		StoreKey:        c.Store.Key,
	}
	switch c.Store.Driver {
	case DriverPostgres:
		creds.StoreURL = c.Store.URL
		creds.StoreURLRequired = true
	case DriverPostgREST:
		creds.StoreURL = c.Store.URL
		creds.StoreURLRequired = true
		creds.StoreKeyRequired = true
	case DriverValkey:
		creds.StoreURL = strings.Join(c.Store.Addrs, ",")
		creds.StoreURLRequired = true
	case DriverBolt:
		creds.StoreURL = c.Store.Path
	}
	return creds
}

// StoreCallTimeout returns the per-call store timeout.
func (c *Config) StoreCallTimeout() time.Duration {
	return time.Duration(c.Store.CallTimeoutSec) * time.Second
}

// EmbeddingCallTimeout returns the per-call embedding timeout.
func (c *Config) EmbeddingCallTimeout() time.Duration {
	return time.Duration(c.Embedding.CallTimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
