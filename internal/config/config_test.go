package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "repair_manuals", cfg.VectorStore.Collection)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)
	assert.Equal(t, "fastembed", cfg.Embeddings.Provider)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embeddings.Model)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.3, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.Equal(t, 1000, cfg.Session.MaxSessions)
	assert.Equal(t, "devices.csv", cfg.Devices.CatalogPath)
	assert.Equal(t, 6334, cfg.VectorStore.Qdrant.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
  read_timeout: 5s
vectorstore:
  provider: none
retrieval:
  top_k: 5
devices:
  catalog_path: /data/devices.csv
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, "none", cfg.VectorStore.Provider)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "/data/devices.csv", cfg.Devices.CatalogPath)
	// Unset fields still get defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("EMBEDDINGS_PROVIDER", "none")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Embeddings.Provider)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8420, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			errMsg: "invalid server port",
		},
		{
			name:   "bad vectorstore provider",
			mutate: func(c *Config) { c.VectorStore.Provider = "pinecone" },
			errMsg: "vectorstore provider",
		},
		{
			name:   "bad embeddings provider",
			mutate: func(c *Config) { c.Embeddings.Provider = "openai" },
			errMsg: "embeddings provider",
		},
		{
			name:   "threshold out of range",
			mutate: func(c *Config) { c.Retrieval.ScoreThreshold = 1.5 },
			errMsg: "score_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "super-secret", s.Value())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))
}
