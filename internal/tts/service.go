package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/example/go-wyoming-silero/internal/observability"
	"github.com/example/go-wyoming-silero/internal/ssml"
	"github.com/example/go-wyoming-silero/internal/text"
)

const logTextRunes = 50

// DefaultVoiceName names the single advertised voice when the engine lists
// no speakers and no default speaker is configured. Requests for it use the
// default speaker.
const DefaultVoiceName = "default"

// Service offloads engine calls to a Pool and turns every engine failure
// into an empty waveform.
type Service struct {
	engine         Engine
	pool           *Pool
	caps           Capabilities
	defaultSpeaker string
	sampleRate     int
	log            *slog.Logger
	metrics        *observability.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for speaker fallback and engine failures.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithMetrics records synthesis durations and failures.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService probes engine once and resolves the default speaker from
// speaker.
func NewService(engine Engine, pool *Pool, speaker string, sampleRate int, opts ...ServiceOption) *Service {
	s := &Service{
		engine:     engine,
		pool:       pool,
		sampleRate: sampleRate,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.caps = Probe(engine)
	s.defaultSpeaker = s.caps.ResolveDefault(speaker, s.log)
	return s
}

// Capabilities returns the probed engine facets.
func (s *Service) Capabilities() Capabilities { return s.caps }

// DefaultSpeaker returns the session default speaker.
func (s *Service) DefaultSpeaker() string { return s.defaultSpeaker }

// SampleRate returns the rate requested from the engine.
func (s *Service) SampleRate() int { return s.sampleRate }

// EffectiveSpeaker returns requested when the engine knows it, otherwise
// the default speaker. An unknown request is logged.
func (s *Service) EffectiveSpeaker(requested string) string {
	if requested == "" {
		return s.defaultSpeaker
	}
	if len(s.caps.Speakers) == 0 && requested == DefaultVoiceName {
		return s.defaultSpeaker
	}
	if s.caps.Known(requested) {
		return requested
	}
	s.log.Warn("requested speaker not found, falling back to default",
		slog.String("requested_speaker", requested),
		slog.String("speaker", s.defaultSpeaker),
	)
	return s.defaultSpeaker
}

// Synthesize renders doc with the effective speaker for requested. Markup
// documents go to the engine's markup entry point, or are reduced to plain
// text when the engine has none. Engine errors and panics are logged and
// yield an empty waveform with a nil error. A non-nil error means ctx ended
// or the pool is closed; the result is then discarded.
func (s *Service) Synthesize(ctx context.Context, doc, requested string) ([]float32, error) {
	req := Request{
		Text:       doc,
		Markup:     ssml.IsDocument(doc),
		Speaker:    s.EffectiveSpeaker(requested),
		SampleRate: s.sampleRate,
	}
	if req.Markup && !s.caps.Markup {
		req.Text = ssml.StripTags(doc)
		req.Markup = false
	}

	s.log.Debug("dispatching synthesis",
		slog.Bool("markup", req.Markup),
		slog.String("speaker", req.Speaker),
	)

	return Submit(ctx, s.pool, func(ctx context.Context) ([]float32, error) {
		return s.call(ctx, req, requested), nil
	})
}

func (s *Service) call(ctx context.Context, req Request, requested string) (samples []float32) {
	start := time.Now()
	fail := func(reason string, err error) {
		if ctx.Err() != nil {
			s.log.Debug("synthesis abandoned by caller", slog.String("error", err.Error()))
			return
		}
		s.metrics.SynthesisFailed(reason)
		s.log.Error("synthesis failed",
			slog.String("text", text.Prefix(req.Text, logTextRunes)),
			slog.String("requested_speaker", requested),
			slog.String("speaker", req.Speaker),
			slog.String("error", err.Error()),
		)
	}

	defer func() {
		if r := recover(); r != nil {
			fail("panic", fmt.Errorf("engine panicked: %v", r))
			samples = []float32{}
		}
	}()

	out, err := s.engine.Synthesize(ctx, req)
	elapsed := time.Since(start)
	s.metrics.ObserveSynthesis(elapsed)
	if err != nil {
		fail("error", err)
		return []float32{}
	}

	s.log.Info("synthesis completed",
		slog.Duration("elapsed", elapsed),
		slog.Int("samples", len(out)),
		slog.String("speaker", req.Speaker),
	)
	return out
}
