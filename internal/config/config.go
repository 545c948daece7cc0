// Package config loads the esquery service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/esquery/internal/querycache"
	"github.com/kailas-cloud/esquery/internal/resultmap"
	"github.com/kailas-cloud/esquery/internal/security"
	"github.com/kailas-cloud/esquery/internal/translate"
)

// Config holds the esquery service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	Cache    CacheConfig    `yaml:"cache"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Index    IndexConfig    `yaml:"index"`
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
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// SecurityConfig mirrors security.Config.
type SecurityConfig struct {
	MaxQueryDepth        *int     `yaml:"max_query_depth"` // default: 50, 0 forbids operator nesting
	MaxArraySize         int      `yaml:"max_array_size"`
	MaxBulkOperations    int      `yaml:"max_bulk_operations"`
	MaxDocumentSize      int      `yaml:"max_document_size"`
	MaxQueryStringLength int      `yaml:"max_query_string_length"`
	MaxQueryComplexity   int      `yaml:"max_query_complexity"`
	AllowedIndices       []string `yaml:"allowed_indices"`
	AllowedRawMethods    []string `yaml:"allowed_raw_methods"`
	SearchableFields     []string `yaml:"searchable_fields"`
	DetailedErrors       bool     `yaml:"detailed_errors"`
	InputSanitization    *bool    `yaml:"input_sanitization"` // default: true
}

// CacheConfig holds translation cache settings.
type CacheConfig struct {
	MaxEntries          int           `yaml:"max_entries"`
	MaxAge              time.Duration `yaml:"max_age"`
	EvictionProbability *float64      `yaml:"eviction_probability"` // default: 0.01, 0 disables sampling
}

// MappingConfig holds result mapping settings.
type MappingConfig struct {
	IDAlias   string `yaml:"id_alias"`
	MetaField string `yaml:"meta_field"`
	JoinField string `yaml:"join_field"`
}

// IndexConfig holds the default index and pagination settings.
type IndexConfig struct {
	Default         string `yaml:"default"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substituting ${VAR} references, then applies
// defaults and validates.
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 2 * security.DefaultMaxDocumentSize
	}

	s := &c.Security
	if s.MaxQueryDepth == nil {
		depth := security.DefaultMaxQueryDepth
		s.MaxQueryDepth = &depth
	}
	if s.MaxArraySize <= 0 {
		s.MaxArraySize = security.DefaultMaxArraySize
	}
	if s.MaxBulkOperations <= 0 {
		s.MaxBulkOperations = security.DefaultMaxBulkOperations
	}
	if s.MaxDocumentSize <= 0 {
		s.MaxDocumentSize = security.DefaultMaxDocumentSize
	}
	if s.MaxQueryStringLength <= 0 {
		s.MaxQueryStringLength = security.DefaultMaxQueryStringLength
	}
	if s.MaxQueryComplexity <= 0 {
		s.MaxQueryComplexity = security.DefaultMaxQueryComplexity
	}
	if s.InputSanitization == nil {
		enabled := true
		s.InputSanitization = &enabled
	}

	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = querycache.DefaultMaxEntries
	}
	if c.Cache.MaxAge <= 0 {
		c.Cache.MaxAge = querycache.DefaultMaxAge
	}
	if c.Cache.EvictionProbability == nil {
		p := translate.DefaultEvictProbability
		c.Cache.EvictionProbability = &p
	}

	if c.Mapping.IDAlias == "" {
		c.Mapping.IDAlias = resultmap.DefaultIDAlias
	}
	if c.Mapping.MetaField == "" {
		c.Mapping.MetaField = resultmap.DefaultMetaField
	}

	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Index.Default == "" {
		return errors.New("index.default is required")
	}
	if c.Index.DefaultPageSize > c.Index.MaxPageSize {
		return fmt.Errorf("index.default_page_size (%d) must not exceed index.max_page_size (%d)",
			c.Index.DefaultPageSize, c.Index.MaxPageSize)
	}
	if d := c.Security.MaxQueryDepth; d != nil && *d < 0 {
		return fmt.Errorf("security.max_query_depth must not be negative, got %d", *d)
	}
	if p := c.Cache.EvictionProbability; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("cache.eviction_probability must be between 0 and 1, got %g", *p)
	}
	if c.Mapping.IDAlias == c.Mapping.MetaField {
		return fmt.Errorf("mapping.id_alias and mapping.meta_field must differ, both are %q", c.Mapping.IDAlias)
	}
	return nil
}

// SecurityLimits converts the security section into a security.Config.
func (c *Config) SecurityLimits() security.Config {
	s := c.Security
	depth := security.DefaultMaxQueryDepth
	if s.MaxQueryDepth != nil {
		depth = *s.MaxQueryDepth
	}
	return security.Config{
		MaxQueryDepth:           depth,
		MaxArraySize:            s.MaxArraySize,
		MaxBulkOperations:       s.MaxBulkOperations,
		MaxDocumentSize:         s.MaxDocumentSize,
		MaxQueryStringLength:    s.MaxQueryStringLength,
		AllowedIndices:          s.AllowedIndices,
		AllowedRawMethods:       s.AllowedRawMethods,
		SearchableFields:        s.SearchableFields,
		MaxQueryComplexity:      s.MaxQueryComplexity,
		EnableDetailedErrors:    s.DetailedErrors,
		EnableInputSanitization: s.InputSanitization == nil || *s.InputSanitization,
	}
}

// MapperOptions converts the mapping section into resultmap.Options.
func (c *Config) MapperOptions() resultmap.Options {
	return resultmap.Options{
		IDAlias:   c.Mapping.IDAlias,
		MetaField: c.Mapping.MetaField,
		JoinField: c.Mapping.JoinField,
	}
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
