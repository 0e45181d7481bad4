package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
app_name: lab
logging:
  level: debug
  format: text
docstore:
  backend: sqlite
  path: ./lab.db
objectstore:
  s3:
    enabled: true
    region: eu-central-1
artifacts:
  backend: object
  base_uri: s3://bucket/artifacts
a2a:
  unary_timeout: 30s
  stream_timeout: 5m
vertex:
  timeout: 2m
history:
  max_depth: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lab", cfg.AppName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DocStoreSQLite, cfg.DocStore.Backend)
	assert.Equal(t, "./lab.db", cfg.DocStore.Path)
	assert.Equal(t, "eu-central-1", cfg.ObjectStore.S3.Region)
	assert.Equal(t, 30*time.Second, cfg.A2A.UnaryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.A2A.StreamTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Vertex.Timeout)
	assert.Equal(t, 50, cfg.History.MaxDepth)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "agentlab", cfg.AppName)
	assert.Equal(t, DocStoreMemory, cfg.DocStore.Backend)
	assert.Equal(t, ArtifactsMemory, cfg.Artifacts.Backend)
	assert.Equal(t, 120*time.Second, cfg.A2A.UnaryTimeout)
	assert.Equal(t, 1000, cfg.History.MaxDepth)
	assert.Equal(t, 100, cfg.Local.MaxModelCalls)
	assert.False(t, cfg.Vertex.Enabled)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("LAB_PROJECT", "my-project")

	path := writeConfig(t, `
docstore:
  backend: firestore
  project_id: ${LAB_PROJECT}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-project", cfg.DocStore.ProjectID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AGENTLAB_DOCSTORE_BACKEND", "sqlite")
	t.Setenv("AGENTLAB_SQLITE_PATH", "/tmp/override.db")
	t.Setenv("AGENTLAB_HISTORY_MAX_DEPTH", "7")
	t.Setenv("AGENTLAB_A2A_TIMEOUT", "15s")
	t.Setenv("AGENTLAB_VERTEX_ENABLED", "true")

	cfg, err := Load(writeConfig(t, "docstore:\n  backend: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, DocStoreSQLite, cfg.DocStore.Backend)
	assert.Equal(t, "/tmp/override.db", cfg.DocStore.Path)
	assert.Equal(t, 7, cfg.History.MaxDepth)
	assert.Equal(t, 15*time.Second, cfg.A2A.UnaryTimeout)
	assert.True(t, cfg.Vertex.Enabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "a2a:\n  unary_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a2a.unary_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"firestore without project", func(c *Config) { c.DocStore.Backend = DocStoreFirestore }, "docstore.project_id"},
		{"sqlite without path", func(c *Config) { c.DocStore.Backend = DocStoreSQLite }, "docstore.path"},
		{"unknown backend", func(c *Config) { c.DocStore.Backend = "mongo" }, "not supported"},
		{"object artifacts without base", func(c *Config) { c.Artifacts.Backend = ArtifactsObject }, "artifacts.base_uri"},
		{"gs base without gcs", func(c *Config) {
			c.Artifacts.Backend = ArtifactsObject
			c.Artifacts.BaseURI = "gs://bucket"
		}, "objectstore.gcs.enabled"},
		{"file base", func(c *Config) {
			c.Artifacts.Backend = ArtifactsObject
			c.Artifacts.BaseURI = "file:///tmp"
		}, "gs:// or s3://"},
		{"zero depth", func(c *Config) { c.History.MaxDepth = 0 }, "history.max_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
