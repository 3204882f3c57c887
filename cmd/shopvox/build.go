package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"shopvox/internal/audio"
	"shopvox/internal/bus"
	"shopvox/internal/compress"
	"shopvox/internal/config"
	"shopvox/internal/input"
	"shopvox/internal/notify"
	"shopvox/internal/output"
	"shopvox/internal/proxy"
	"shopvox/internal/search"
	"shopvox/internal/summary"
	"shopvox/internal/tts"
	"shopvox/pkg/stt"
)

// services owns everything the assistant loop needs plus the resources to
// release on shutdown.
type services struct {
	input   input.Listener
	search  *search.Stage
	summary *summary.Pipeline
	output  *output.Presenter

	closers []io.Closer
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			slog.Debug("close", "err", err)
		}
	}
}

type closeFunc func()

func (f closeFunc) Close() error { f(); return nil }

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *services, err error) {
	svc := &services{}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	httpClient, err := proxy.NewClient(cfg.Network.Proxy, cfg.Network.Timeout)
	if err != nil {
		return nil, err
	}

	var oai *openai.Client
	if cfg.OpenAI.APIKey != "" {
		opts := []option.RequestOption{
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithHTTPClient(httpClient),
		}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		c := openai.NewClient(opts...)
		oai = &c
	}

	var hub *bus.Bus
	if cfg.Input.Source == config.SourceBus || cfg.Bus.Mirror {
		hub, err = bus.Dial(ctx, bus.Config{URL: cfg.Bus.URL, Name: cfg.Bus.Name})
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, hub)
	}

	svc.input, err = buildInput(cfg, svc, oai, hub, logger)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}
	svc.search = search.NewStage(provider, cfg.Search.Limit, logger)

	svc.summary = summary.NewPipeline(buildCompressor(cfg, httpClient, logger), buildSummarizer(cfg, oai), logger)

	var opts []output.Option
	if hub != nil {
		opts = append(opts, output.WithMirror(hub))
	}
	if cfg.Audio.Duck {
		opts = append(opts, output.WithDucker(audio.NewDucker(cfg.Audio.DuckFactor, cfg.Audio.DuckFloor, cfg.Audio.DuckFade, "shopvox")))
	}
	svc.output = output.New(os.Stdout, buildEngine(cfg, logger), logger, opts...)

	return svc, nil
}

func buildInput(cfg *config.Config, svc *services, oai *openai.Client, hub *bus.Bus, logger *slog.Logger) (input.Listener, error) {
	switch cfg.Input.Source {
	case config.SourceText:
		return input.NewText(os.Stdin, os.Stdout), nil

	case config.SourceSocket:
		s, err := input.NewSocket(cfg.Input.Socket, logger)
		if err != nil {
			return nil, fmt.Errorf("control socket: %w", err)
		}
		svc.closers = append(svc.closers, s)
		logger.Info("Waiting for queries", "socket", cfg.Input.Socket)
		return s, nil

	case config.SourceBus:
		return input.NewBus(hub), nil
	}

	tr, err := buildTranscriber(cfg, svc, oai)
	if err != nil {
		return nil, err
	}

	if cfg.Input.Source == config.SourceFile {
		return input.NewFile(cfg.Input.Files, tr, logger), nil
	}

	rec := audio.NewRecorder(audio.Limits{
		ListenTimeout: cfg.Input.ListenTimeout,
		Silence:       cfg.Input.Silence,
		MaxUtterance:  cfg.Input.MaxUtterance,
		SilenceRMS:    cfg.Input.SilenceRMS,
	})
	if err := rec.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", input.ErrDevice, err)
	}
	svc.closers = append(svc.closers, closeFunc(rec.Close))

	var cue notify.Notifier = notify.Noop{}
	if cfg.Audio.Earcon != "" {
		e, err := notify.LoadEarcon(cfg.Audio.Earcon)
		if err != nil {
			logger.Warn("Earcon disabled", "err", err)
		} else {
			cue = e
		}
	}

	return input.NewVoice(rec, tr, cue, logger), nil
}

func buildTranscriber(cfg *config.Config, svc *services, oai *openai.Client) (stt.Transcriber, error) {
	switch cfg.STT.Engine {
	case "openai":
		if oai == nil {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY", config.ErrMissing)
		}
		return stt.NewOpenAI(*oai, cfg.STT.Model, cfg.STT.Language), nil
	default:
		w, err := stt.NewWhisper(cfg.STT.Model, stt.WhisperOptions{
			Language: cfg.STT.Language,
			Threads:  cfg.STT.Threads,
		})
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, w)
		return w, nil
	}
}

func buildProvider(cfg *config.Config, client *http.Client, logger *slog.Logger) (search.Provider, error) {
	names := cfg.SearchProviders()
	providers := make([]search.Provider, 0, len(names))
	for _, name := range names {
		switch name {
		case "duckduckgo":
			providers = append(providers, search.NewDuckDuckGoWithClient(client))
		case "brave":
			providers = append(providers, search.NewBraveWithClient(cfg.Search.BraveKey, client))
		case "tavily":
			providers = append(providers, search.NewTavilyWithClient(cfg.Search.TavilyKey, cfg.Search.TavilyDepth, client))
		default:
			return nil, fmt.Errorf("%w: search provider %q", config.ErrInvalid, name)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("no search provider configured")
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return search.NewFallback(logger, providers...), nil
}

func buildCompressor(cfg *config.Config, client *http.Client, logger *slog.Logger) compress.Compressor {
	if cfg.Compress.APIKey == "" {
		logger.Info("SCALEDOWN_API_KEY not set, prompt compression disabled")
		return compress.Noop{}
	}
	return compress.NewScaleDownWithClient(cfg.Compress.APIKey, cfg.Compress.Model, compress.ScaleDownURL, client)
}

func buildSummarizer(cfg *config.Config, oai *openai.Client) summary.Summarizer {
	if cfg.Summary.Engine == "llm" && oai != nil {
		return summary.NewLLM(*oai, cfg.Summary.Model)
	}
	return summary.Template{}
}

func buildEngine(cfg *config.Config, logger *slog.Logger) tts.Engine {
	opts := tts.Options{Rate: cfg.TTS.Rate, Voice: cfg.TTS.Voice}

	switch cfg.TTS.Engine {
	case "silent":
		return tts.Silent{}
	case "espeak":
		e, err := tts.NewEspeak(opts)
		if err != nil {
			logger.Warn("espeak unavailable, console only", "err", err)
			return tts.Silent{}
		}
		return e
	case "command":
		return tts.NewCommand(opts)
	}

	// auto: linked espeak, then a speech command, then console only
	if e, err := tts.NewEspeak(opts); err == nil {
		return e
	}
	if c := tts.NewCommand(opts); c.Available() {
		return c
	}
	logger.Warn("No speech engine found, console only")
	return tts.Silent{}
}
