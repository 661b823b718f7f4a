package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_NeedsOnlyACredential(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.LLM.APIKey = "k"
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":7000"
llm:
  provider: openai
  model: gpt-4o
  api_key: from-file
  timeout: 30s
extract:
  dpi: 150
`), 0o600))
	t.Setenv("POMATCH_HTTP_ADDR", ":7100")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("EXTRACT_USE_PDFTOTEXT", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2.5, cfg.LLM.RequestsPerSecond)
	assert.Equal(t, 150, cfg.Extract.DPI)
	assert.False(t, cfg.Extract.UsePdftotext)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_ProviderKeyFallback(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrConfiguration)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not, a, map]"), 0o600))
	_, err = LoadConfig(path)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "bard"
	cfg.LLM.APIKey = "k"
	cfg.Extract.DPI = 10
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, CodeConfiguration, CodeOf(err))
	assert.Contains(t, err.Error(), "Config.LLM.Provider")
	assert.Contains(t, err.Error(), "Config.Extract.DPI")
	assert.Contains(t, err.Error(), "Config.Log.Format")
}

func TestValidate_HeicConverter(t *testing.T) {
	tests := []struct {
		converter string
		ok        bool
	}{
		{"magick", true},
		{"/usr/local/bin/magick", true},
		{"/opt/libheif/bin/heif-convert", true},
		{"sips", true},
		{"ffmpeg", false},
		{"/usr/bin/ffmpeg", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.converter, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.APIKey = "k"
			cfg.Extract.HeicConverter = tt.converter
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrConfiguration)
				assert.Contains(t, err.Error(), "Config.Extract.HeicConverter")
			}
		})
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llava"
	require.NoError(t, cfg.Validate())
}
