package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissing is returned when a selected component lacks a required
	// setting such as an API key or a model path.
	ErrMissing = errors.New("missing configuration")
	ErrInvalid = errors.New("invalid configuration")
)

const (
	SourceVoice  = "voice"
	SourceText   = "text"
	SourceSocket = "socket"
	SourceBus    = "bus"
	SourceFile   = "file"
)

var sources = []string{SourceVoice, SourceText, SourceSocket, SourceBus, SourceFile}

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	Input    InputConfig    `yaml:"input"`
	STT      STTConfig      `yaml:"stt"`
	Search   SearchConfig   `yaml:"search"`
	Compress CompressConfig `yaml:"compress"`
	Summary  SummaryConfig  `yaml:"summary"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	TTS      TTSConfig      `yaml:"tts"`
	Audio    AudioConfig    `yaml:"audio"`
	Bus      BusConfig      `yaml:"bus"`
	Network  NetworkConfig  `yaml:"network"`
	Log      LogConfig      `yaml:"log"`
}

type InputConfig struct {
	Source        string        `yaml:"source"`
	Files         []string      `yaml:"files"`
	Socket        string        `yaml:"socket"`
	ListenTimeout time.Duration `yaml:"listen_timeout"`
	Silence       time.Duration `yaml:"silence"`
	MaxUtterance  time.Duration `yaml:"max_utterance"`
	SilenceRMS    float64       `yaml:"silence_rms"`
}

type STTConfig struct {
	Engine   string `yaml:"engine"` // whisper | openai
	Model    string `yaml:"model"`  // ggml model path or OpenAI model name
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
}

type SearchConfig struct {
	// Provider names a single backend, or "fallback" to try the Fallback
	// list in order.
	Provider    string   `yaml:"provider"`
	Fallback    []string `yaml:"fallback"`
	Limit       int      `yaml:"limit"`
	BraveKey    string   `yaml:"brave_api_key"`
	TavilyKey   string   `yaml:"tavily_api_key"`
	TavilyDepth string   `yaml:"tavily_depth"`
}

type CompressConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SummaryConfig struct {
	Engine string `yaml:"engine"` // template | llm
	Model  string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type TTSConfig struct {
	Engine string `yaml:"engine"` // auto | espeak | command | silent
	Rate   int    `yaml:"rate"`
	Voice  string `yaml:"voice"`
}

type AudioConfig struct {
	Earcon     string        `yaml:"earcon"`
	Duck       bool          `yaml:"duck"`
	DuckFactor float64       `yaml:"duck_factor"`
	DuckFloor  int           `yaml:"duck_floor"`
	DuckFade   time.Duration `yaml:"duck_fade"`
}

type BusConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	// Mirror copies replies to the bus even when input comes from elsewhere.
	Mirror bool `yaml:"mirror"`
}

type NetworkConfig struct {
	Proxy   string        `yaml:"proxy"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, expanding ${VAR} references. An empty
// path yields the defaults. API keys left empty are taken from the
// environment.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.fromEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) fromEnv() {
	envDefault(&c.Compress.APIKey, "SCALEDOWN_API_KEY")
	envDefault(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	envDefault(&c.Search.BraveKey, "BRAVE_API_KEY")
	envDefault(&c.Search.TavilyKey, "TAVILY_API_KEY")
}

func envDefault(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func (c *Config) setDefaults() {
	if c.Input.Source == "" {
		c.Input.Source = SourceVoice
	}
	if c.Input.Socket == "" {
		c.Input.Socket = "/tmp/shopvox.sock"
	}
	if c.Input.ListenTimeout == 0 {
		c.Input.ListenTimeout = 10 * time.Second
	}
	if c.Input.Silence == 0 {
		c.Input.Silence = 600 * time.Millisecond
	}
	if c.Input.MaxUtterance == 0 {
		c.Input.MaxUtterance = 10 * time.Second
	}
	if c.Input.SilenceRMS == 0 {
		c.Input.SilenceRMS = 0.015
	}
	if c.STT.Engine == "" {
		c.STT.Engine = "whisper"
	}
	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "duckduckgo"
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = 5
	}
	if c.Search.TavilyDepth == "" {
		c.Search.TavilyDepth = "basic"
	}
	if c.Compress.Model == "" {
		c.Compress.Model = "gpt-4o"
	}
	if c.Summary.Engine == "" {
		c.Summary.Engine = "template"
	}
	if c.TTS.Engine == "" {
		c.TTS.Engine = "auto"
	}
	if c.TTS.Rate == 0 {
		c.TTS.Rate = 175
	}
	if c.Audio.DuckFactor == 0 {
		c.Audio.DuckFactor = 0.3
	}
	if c.Audio.DuckFloor == 0 {
		c.Audio.DuckFloor = 10
	}
	if c.Audio.DuckFade == 0 {
		c.Audio.DuckFade = 200 * time.Millisecond
	}
	if c.Bus.Name == "" {
		c.Bus.Name = "shopvox"
	}
	if c.Network.Timeout == 0 {
		c.Network.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that every selected component has what it needs. Call it
// after flag overrides were applied.
func (c *Config) Validate() error {
	if !slices.Contains(sources, c.Input.Source) {
		return fmt.Errorf("%w: input source %q (want one of %v)", ErrInvalid, c.Input.Source, sources)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: log level %q (want one of %v)", ErrInvalid, c.Log.Level, logLevels)
	}
	if c.Search.Limit < 1 {
		return fmt.Errorf("%w: search limit %d", ErrInvalid, c.Search.Limit)
	}
	if c.TTS.Rate < 1 {
		return fmt.Errorf("%w: tts rate %d", ErrInvalid, c.TTS.Rate)
	}

	switch c.Input.Source {
	case SourceVoice, SourceFile:
		switch c.STT.Engine {
		case "whisper":
			if c.STT.Model == "" {
				return fmt.Errorf("%w: stt.model (whisper model path)", ErrMissing)
			}
		case "openai":
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("%w: OPENAI_API_KEY for openai transcription", ErrMissing)
			}
		default:
			return fmt.Errorf("%w: stt engine %q", ErrInvalid, c.STT.Engine)
		}
		if c.Input.Source == SourceFile && len(c.Input.Files) == 0 {
			return fmt.Errorf("%w: input.files for file input", ErrMissing)
		}
	case SourceBus:
		if c.Bus.URL == "" {
			return fmt.Errorf("%w: bus.url for bus input", ErrMissing)
		}
	}

	if c.Bus.Mirror && c.Bus.URL == "" {
		return fmt.Errorf("%w: bus.url for reply mirroring", ErrMissing)
	}

	providers := c.SearchProviders()
	if len(providers) == 0 {
		return fmt.Errorf("%w: search.fallback is empty", ErrMissing)
	}
	for _, p := range providers {
		switch p {
		case "duckduckgo":
		case "brave":
			if c.Search.BraveKey == "" {
				return fmt.Errorf("%w: BRAVE_API_KEY for brave search", ErrMissing)
			}
		case "tavily":
			if c.Search.TavilyKey == "" {
				return fmt.Errorf("%w: TAVILY_API_KEY for tavily search", ErrMissing)
			}
		default:
			return fmt.Errorf("%w: search provider %q", ErrInvalid, p)
		}
	}

	switch c.Summary.Engine {
	case "template":
	case "llm":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY for llm summary", ErrMissing)
		}
	default:
		return fmt.Errorf("%w: summary engine %q", ErrInvalid, c.Summary.Engine)
	}

	switch c.TTS.Engine {
	case "auto", "espeak", "command", "silent":
	default:
		return fmt.Errorf("%w: tts engine %q", ErrInvalid, c.TTS.Engine)
	}

	return nil
}

// SearchProviders lists the providers to query in order. "fallback" expands
// to Search.Fallback.
func (c *Config) SearchProviders() []string {
	if c.Search.Provider == "fallback" {
		return c.Search.Fallback
	}
	return []string{c.Search.Provider}
}
