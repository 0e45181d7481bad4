package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document store backends.
const (
	DocStoreMemory    = "memory"
	DocStoreFirestore = "firestore"
	DocStoreSQLite    = "sqlite"
)

// Artifact store backends.
const (
	ArtifactsMemory = "memory"
	ArtifactsObject = "object"
)

// Config represents the complete agentlab configuration.
type Config struct {
	AppName     string            `yaml:"app_name"`
	Logging     LoggingConfig     `yaml:"logging"`
	DocStore    DocStoreConfig    `yaml:"docstore"`
	ObjectStore ObjectStoreConfig `yaml:"objectstore"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	A2A         A2AConfig         `yaml:"a2a"`
	Vertex      VertexConfig      `yaml:"vertex"`
	History     HistoryConfig     `yaml:"history"`
	Local       LocalConfig       `yaml:"local"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// DocStoreConfig selects and configures the document database.
type DocStoreConfig struct {
	Backend string `yaml:"backend"`

	// Firestore
	ProjectID  string `yaml:"project_id"`
	DatabaseID string `yaml:"database_id"`

	// SQLite
	Path string `yaml:"path"`
}

// ObjectStoreConfig configures the object storage clients.
type ObjectStoreConfig struct {
	GCS GCSConfig `yaml:"gcs"`
	S3  S3Config  `yaml:"s3"`
}

// GCSConfig enables the gs:// scheme.
type GCSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// S3Config enables the s3:// scheme.
type S3Config struct {
	Enabled      bool   `yaml:"enabled"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"` // S3 compatible endpoint (MinIO, R2)
	UsePathStyle bool   `yaml:"use_path_style"`
}

// ArtifactsConfig selects where materialized context is versioned.
type ArtifactsConfig struct {
	Backend string `yaml:"backend"`
	BaseURI string `yaml:"base_uri"` // e.g. gs://bucket/artifacts
}

// A2AConfig holds remote protocol timing.
type A2AConfig struct {
	UnaryTimeout  time.Duration `yaml:"-"`
	StreamTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	UnaryTimeoutRaw  string `yaml:"unary_timeout"`
	StreamTimeoutRaw string `yaml:"stream_timeout"`
}

// VertexConfig holds deployed engine settings.
type VertexConfig struct {
	// Enabled creates an Agent Engine client with Application Default
	// Credentials. Without it deployed agents cannot be addressed.
	Enabled    bool          `yaml:"enabled"`
	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// HistoryConfig bounds history reconstruction.
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// LocalConfig tunes in-process agent runs.
type LocalConfig struct {
	Streaming     bool `yaml:"streaming"`
	MaxModelCalls int  `yaml:"max_model_calls"`
}

// Default returns a configuration that runs fully in memory.
func Default() *Config {
	return &Config{
		AppName:   "agentlab",
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		DocStore:  DocStoreConfig{Backend: DocStoreMemory},
		Artifacts: ArtifactsConfig{Backend: ArtifactsMemory},
		A2A:       A2AConfig{UnaryTimeout: 120 * time.Second, UnaryTimeoutRaw: "120s"},
		History:   HistoryConfig{MaxDepth: 1000},
		Local:     LocalConfig{MaxModelCalls: 100},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// An empty path yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expandedData := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"AGENTLAB_APP_NAME":          &cfg.AppName,
		"AGENTLAB_LOG_LEVEL":         &cfg.Logging.Level,
		"AGENTLAB_LOG_FORMAT":        &cfg.Logging.Format,
		"AGENTLAB_DOCSTORE_BACKEND":  &cfg.DocStore.Backend,
		"AGENTLAB_FIRESTORE_PROJECT": &cfg.DocStore.ProjectID,
		"AGENTLAB_FIRESTORE_DB":      &cfg.DocStore.DatabaseID,
		"AGENTLAB_SQLITE_PATH":       &cfg.DocStore.Path,
		"AGENTLAB_ARTIFACTS_BACKEND": &cfg.Artifacts.Backend,
		"AGENTLAB_ARTIFACTS_BASE":    &cfg.Artifacts.BaseURI,
		"AGENTLAB_S3_REGION":         &cfg.ObjectStore.S3.Region,
		"AGENTLAB_S3_ENDPOINT":       &cfg.ObjectStore.S3.Endpoint,
		"AGENTLAB_A2A_TIMEOUT":       &cfg.A2A.UnaryTimeoutRaw,
		"AGENTLAB_VERTEX_TIMEOUT":    &cfg.Vertex.TimeoutRaw,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("AGENTLAB_HISTORY_MAX_DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENTLAB_HISTORY_MAX_DEPTH %q: %w", v, err)
		}
		cfg.History.MaxDepth = n
	}

	flags := map[string]*bool{
		"AGENTLAB_GCS_ENABLED":     &cfg.ObjectStore.GCS.Enabled,
		"AGENTLAB_S3_ENABLED":      &cfg.ObjectStore.S3.Enabled,
		"AGENTLAB_VERTEX_ENABLED":  &cfg.Vertex.Enabled,
		"AGENTLAB_LOCAL_STREAMING": &cfg.Local.Streaming,
	}
	for key, dst := range flags {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s %q: %w", key, v, err)
			}
			*dst = b
		}
	}

	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name is required")
	}

	switch c.DocStore.Backend {
	case DocStoreMemory:
	case DocStoreFirestore:
		if c.DocStore.ProjectID == "" {
			return fmt.Errorf("docstore.project_id is required for the firestore backend")
		}
	case DocStoreSQLite:
		if c.DocStore.Path == "" {
			return fmt.Errorf("docstore.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("docstore.backend %q is not supported", c.DocStore.Backend)
	}

	switch c.Artifacts.Backend {
	case ArtifactsMemory:
	case ArtifactsObject:
		if c.Artifacts.BaseURI == "" {
			return fmt.Errorf("artifacts.base_uri is required for the object backend")
		}
		scheme, _, _ := strings.Cut(c.Artifacts.BaseURI, "://")
		switch scheme {
		case "gs":
			if !c.ObjectStore.GCS.Enabled {
				return fmt.Errorf("artifacts.base_uri %q needs objectstore.gcs.enabled", c.Artifacts.BaseURI)
			}
		case "s3":
			if !c.ObjectStore.S3.Enabled {
				return fmt.Errorf("artifacts.base_uri %q needs objectstore.s3.enabled", c.Artifacts.BaseURI)
			}
		default:
			return fmt.Errorf("artifacts.base_uri %q must be a gs:// or s3:// URI", c.Artifacts.BaseURI)
		}
	default:
		return fmt.Errorf("artifacts.backend %q is not supported", c.Artifacts.Backend)
	}

	if c.History.MaxDepth <= 0 {
		return fmt.Errorf("history.max_depth must be positive")
	}

	if c.Local.MaxModelCalls < 0 {
		return fmt.Errorf("local.max_model_calls must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"a2a.unary_timeout", cfg.A2A.UnaryTimeoutRaw, &cfg.A2A.UnaryTimeout},
		{"a2a.stream_timeout", cfg.A2A.StreamTimeoutRaw, &cfg.A2A.StreamTimeout},
		{"vertex.timeout", cfg.Vertex.TimeoutRaw, &cfg.Vertex.Timeout},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
