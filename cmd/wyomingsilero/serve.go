package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/config"
	"github.com/example/go-wyoming-silero/internal/model"
	"github.com/example/go-wyoming-silero/internal/observability"
	"github.com/example/go-wyoming-silero/internal/server"
	"github.com/example/go-wyoming-silero/internal/tts"
)

const metricsNamespace = "wyoming_silero"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Wyoming TTS server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := slog.Default()
			logBanner(log, cfg)

			srv, err := buildServer(ctx, cfg, log)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
}

// buildServer loads the engine and wires the synthesis service into a
// Wyoming server. Any failure here is fatal for serve.
func buildServer(ctx context.Context, cfg config.Config, log *slog.Logger) (*server.Server, error) {
	log.Info("loading model")
	engine, err := buildEngine(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(metricsNamespace, reg)

	pool := tts.NewPool(cfg.Server.Workers, cfg.Server.QueueSize)
	svc := tts.NewService(engine, pool, cfg.TTS.Speaker, cfg.TTS.SampleRate,
		tts.WithLogger(log),
		tts.WithMetrics(metrics),
	)

	speakers := svc.Capabilities().Speakers
	if len(speakers) == 0 {
		log.Warn("engine did not report speakers, advertising only the default voice")
	} else {
		log.Info("available speakers", slog.Any("speakers", speakers))
	}
	if cfg.TTS.Speaker == "" && svc.DefaultSpeaker() != "" {
		log.Info("no speaker specified, using first available", slog.String("speaker", svc.DefaultSpeaker()))
	}
	log.Info("markup support", slog.Bool("ssml", svc.Capabilities().Markup))

	session := server.Session{
		Language:       cfg.TTS.Language,
		Model:          cfg.TTS.Model,
		DefaultSpeaker: svc.DefaultSpeaker(),
		SampleRate:     svc.SampleRate(),
		Directives:     cfg.SSML,
	}
	info := server.BuildInfo(cfg.TTS.Language, cfg.TTS.Model, svc.DefaultSpeaker(), speakers)

	opts := []server.Option{
		server.WithLogger(log),
		server.WithMetrics(metrics),
		server.WithMetricsAddr(cfg.Server.MetricsAddr),
		server.WithPool(pool),
		server.WithEventQueue(cfg.Server.EventQueue),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	closer, hasClose := engine.(engineCloser)
	if hasClose {
		opts = append(opts, server.OnShutdown(closer.Close))
	}

	srv, err := server.New(cfg.Server.URI, session, info, svc, opts...)
	if err != nil {
		_ = pool.Close(ctx)
		if hasClose {
			_ = closer.Close(ctx)
		}
		return nil, err
	}
	return srv, nil
}

// engineCloser is implemented by engines that own external processes.
type engineCloser interface {
	Close(ctx context.Context) error
}

// buildEngine returns the configured backend. The exec backend resolves the
// model package through the catalog first, downloading it when absent.
func buildEngine(ctx context.Context, cfg config.Config, log *slog.Logger) (tts.Engine, error) {
	switch cfg.Engine.Backend {
	case config.BackendTone:
		log.Warn("using the tone backend, output is a test signal")
		return tts.NewToneEngine(), nil
	case config.BackendExec:
		fetcher, err := model.NewFetcher(model.FetcherOptions{
			Dir:        cfg.Paths.ModelDir,
			CatalogURL: cfg.TTS.CatalogURL,
			Logger:     log,
			Progress:   os.Stderr,
		})
		if err != nil {
			return nil, err
		}
		pkg, err := fetcher.Ensure(ctx, cfg.TTS.Language, cfg.TTS.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		if !pkg.Release.SampleRate.Supports(cfg.TTS.SampleRate) {
			log.Warn("sample rate not listed for model",
				slog.Int("sample_rate", cfg.TTS.SampleRate),
				slog.Any("supported", []int(pkg.Release.SampleRate)),
			)
		}
		processes := cfg.Engine.Processes
		if processes < 1 {
			processes = cfg.Server.Workers
		}
		engine, err := tts.NewExecEngine(ctx, cfg.Engine.Command, pkg.Path,
			tts.WithProcesses(processes),
			tts.WithExecLogger(log.With(slog.String("component", "engine"))),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start engine: %w", err)
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Engine.Backend)
	}
}

func logBanner(log *slog.Logger, cfg config.Config) {
	speaker := cfg.TTS.Speaker
	if speaker == "" {
		speaker = "auto"
	}
	attrs := []any{
		slog.String("language", cfg.TTS.Language),
		slog.String("model", cfg.TTS.Model),
		slog.String("speaker", speaker),
		slog.Int("sample_rate", cfg.TTS.SampleRate),
		slog.String("backend", cfg.Engine.Backend),
		slog.String("uri", cfg.Server.URI),
		slog.Int("workers", cfg.Server.Workers),
	}
	if cfg.Engine.Backend == config.BackendExec {
		attrs = append(attrs, slog.Int("engine_processes", cfg.Engine.Processes))
	}
	if cfg.SSML.Enabled() {
		attrs = append(attrs, slog.Group("ssml",
			slog.String("prosody_rate", cfg.SSML.Rate),
			slog.String("prosody_pitch", cfg.SSML.Pitch),
			slog.String("break_time", cfg.SSML.BreakTime),
			slog.String("break_strength", cfg.SSML.BreakStrength),
		))
	}
	log.Info("starting wyoming silero tts server", attrs...)
}
