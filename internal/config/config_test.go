package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearKeys(t *testing.T) {
	for _, k := range []string{"SCALEDOWN_API_KEY", "OPENAI_API_KEY", "BRAVE_API_KEY", "TAVILY_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Search.Limit != 5 {
		t.Errorf("Search.Limit = %d, want 5", cfg.Search.Limit)
	}
	if cfg.TTS.Rate != 175 {
		t.Errorf("TTS.Rate = %d, want 175", cfg.TTS.Rate)
	}
	if cfg.Search.Provider != "duckduckgo" {
		t.Errorf("Search.Provider = %q", cfg.Search.Provider)
	}
	if cfg.Input.Source != SourceVoice {
		t.Errorf("Input.Source = %q", cfg.Input.Source)
	}
	if cfg.Input.Silence != 600*time.Millisecond || cfg.Input.MaxUtterance != 10*time.Second {
		t.Errorf("VAD limits = %v / %v", cfg.Input.Silence, cfg.Input.MaxUtterance)
	}
	if cfg.Compress.Model != "gpt-4o" {
		t.Errorf("Compress.Model = %q", cfg.Compress.Model)
	}
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	clearKeys(t)
	t.Setenv("SHOPVOX_TEST_MODEL", "/models/ggml-base.en.bin")
	t.Setenv("SCALEDOWN_API_KEY", "sd-from-env")

	path := writeFile(t, "shopvox.yaml", `
input:
  source: text
  listen_timeout: 5s
stt:
  model: ${SHOPVOX_TEST_MODEL}
search:
  provider: fallback
  fallback: [duckduckgo, brave]
  limit: 3
  brave_api_key: brave-key
tts:
  rate: 150
  voice: en-us
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Input.Source != SourceText || cfg.Input.ListenTimeout != 5*time.Second {
		t.Errorf("Input = %+v", cfg.Input)
	}
	if cfg.STT.Model != "/models/ggml-base.en.bin" {
		t.Errorf("STT.Model = %q", cfg.STT.Model)
	}
	if cfg.Compress.APIKey != "sd-from-env" {
		t.Errorf("Compress.APIKey = %q", cfg.Compress.APIKey)
	}
	if got := cfg.SearchProviders(); len(got) != 2 || got[1] != "brave" {
		t.Errorf("SearchProviders = %v", got)
	}
	if cfg.TTS.Rate != 150 || cfg.TTS.Voice != "en-us" {
		t.Errorf("TTS = %+v", cfg.TTS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "input: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	clearKeys(t)

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"text input needs nothing", func(c *Config) { c.Input.Source = SourceText }, nil},
		{"voice needs whisper model", func(c *Config) {}, ErrMissing},
		{"voice with model", func(c *Config) { c.STT.Model = "model.bin" }, nil},
		{"openai stt needs key", func(c *Config) { c.STT.Engine = "openai" }, ErrMissing},
		{"file input needs files", func(c *Config) { c.Input.Source = SourceFile; c.STT.Model = "m" }, ErrMissing},
		{"bus input needs url", func(c *Config) { c.Input.Source = SourceBus }, ErrMissing},
		{"unknown source", func(c *Config) { c.Input.Source = "telepathy" }, ErrInvalid},
		{"brave needs key", func(c *Config) { c.Input.Source = SourceText; c.Search.Provider = "brave" }, ErrMissing},
		{"tavily needs key", func(c *Config) { c.Input.Source = SourceText; c.Search.Provider = "tavily" }, ErrMissing},
		{"empty fallback", func(c *Config) { c.Input.Source = SourceText; c.Search.Provider = "fallback" }, ErrMissing},
		{"unknown provider", func(c *Config) { c.Input.Source = SourceText; c.Search.Provider = "altavista" }, ErrInvalid},
		{"llm needs key", func(c *Config) { c.Input.Source = SourceText; c.Summary.Engine = "llm" }, ErrMissing},
		{"bad limit", func(c *Config) { c.Input.Source = SourceText; c.Search.Limit = -1 }, ErrInvalid},
		{"bad tts engine", func(c *Config) { c.Input.Source = SourceText; c.TTS.Engine = "opera" }, ErrInvalid},
		{"mirror needs url", func(c *Config) { c.Input.Source = SourceText; c.Bus.Mirror = true }, ErrMissing},
		{"unknown log level", func(c *Config) { c.Input.Source = SourceText; c.Log.Level = "verbose" }, ErrInvalid},
		{"debug log level", func(c *Config) { c.Input.Source = SourceText; c.Log.Level = "debug" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.modify(cfg)

			err = cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing env file: %v", err)
	}

	t.Setenv("SHOPVOX_TEST_TOKEN", "")
	os.Unsetenv("SHOPVOX_TEST_TOKEN")
	path := writeFile(t, ".env", "SHOPVOX_TEST_TOKEN=abc123\n")
	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("SHOPVOX_TEST_TOKEN"); got != "abc123" {
		t.Errorf("SHOPVOX_TEST_TOKEN = %q", got)
	}
}
