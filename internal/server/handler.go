package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/example/go-wyoming-silero/internal/audio"
	"github.com/example/go-wyoming-silero/internal/observability"
	"github.com/example/go-wyoming-silero/internal/ssml"
	"github.com/example/go-wyoming-silero/internal/text"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

const logTextRunes = 50

// State is the position of a Handler in the synthesis pipeline.
type State int

const (
	StateIdle State = iota
	StateNormalizing
	StateComposing
	StateSynthesizing
	StateEncoding
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNormalizing:
		return "normalizing"
	case StateComposing:
		return "composing"
	case StateSynthesizing:
		return "synthesizing"
	case StateEncoding:
		return "encoding"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session holds the per-process synthesis defaults. It is built once at
// startup and copied into every Handler.
type Session struct {
	Language       string
	Model          string
	DefaultSpeaker string
	SampleRate     int
	Directives     ssml.Directives
}

// Synthesizer renders a text or markup document. A returned error means the
// request was abandoned; engine failures surface as an empty waveform.
type Synthesizer interface {
	Synthesize(ctx context.Context, doc, speaker string) ([]float32, error)
}

// EventWriter sends events to the peer.
type EventWriter interface {
	WriteEvent(ev wyoming.Event) error
}

// Handler runs the protocol state machine for one connection. It is not
// safe for concurrent use; events must be handed to it in arrival order.
type Handler struct {
	session Session
	info    wyoming.Event
	synth   Synthesizer
	out     EventWriter
	norm    *text.Normalizer
	log     *slog.Logger
	metrics *observability.Metrics
	state   State
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the connection logger.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// WithHandlerMetrics records outgoing events and streamed bytes.
func WithHandlerMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler returns a Handler in StateIdle. info is the pre-encoded reply
// to describe.
func NewHandler(session Session, info wyoming.Event, synth Synthesizer, out EventWriter, opts ...HandlerOption) *Handler {
	h := &Handler{
		session: session,
		info:    info,
		synth:   synth,
		out:     out,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.norm = text.NewNormalizer(h.log)
	return h
}

// State returns the current pipeline state.
func (h *Handler) State() State { return h.state }

// HandleEvent processes one inbound event. Unknown and undecodable events
// are logged and ignored. The returned error is fatal for the connection:
// a failed write, or ctx ending while a synthesis was outstanding.
func (h *Handler) HandleEvent(ctx context.Context, ev wyoming.Event) error {
	switch ev.Type {
	case wyoming.TypeDescribe:
		if err := h.emit(h.info); err != nil {
			return err
		}
		h.log.Debug("sent info")
		return nil
	case wyoming.TypeSynthesize:
		req, err := wyoming.SynthesizeFromEvent(ev)
		if err != nil {
			h.log.Warn("ignoring undecodable synthesize event", slog.String("error", err.Error()))
			return nil
		}
		return h.synthesize(ctx, req)
	default:
		h.log.Debug("ignoring event", slog.String("type", ev.Type))
		return nil
	}
}

func (h *Handler) synthesize(ctx context.Context, req wyoming.Synthesize) error {
	defer h.setState(StateIdle)
	start := time.Now()
	requested := req.RequestedSpeaker()

	h.log.Info("synthesis request",
		slog.String("text", text.Prefix(req.Text, logTextRunes)),
		slog.Int("text_len", len(req.Text)),
		slog.String("requested_speaker", requested),
		slog.String("default_speaker", h.session.DefaultSpeaker),
	)

	var samples []float32
	if strings.TrimSpace(req.Text) == "" {
		h.log.Warn("empty synthesis text, sending empty audio")
	} else {
		h.setState(StateNormalizing)
		normalized := h.norm.Normalize(req.Text, h.language(req))

		h.setState(StateComposing)
		doc := ssml.Compose(normalized, h.session.Directives)

		h.setState(StateSynthesizing)
		var err error
		samples, err = h.synth.Synthesize(ctx, doc, requested)
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
	}
	synthesized := time.Now()

	h.setState(StateEncoding)
	pcm := audio.PCM16(samples)

	h.setState(StateStreaming)
	if err := h.stream(pcm); err != nil {
		return err
	}

	h.log.Info("request completed",
		slog.Duration("total", time.Since(start)),
		slog.Duration("synthesis", synthesized.Sub(start)),
		slog.Duration("streaming", time.Since(synthesized)),
		slog.Float64("audio_seconds", audio.Duration(len(samples), h.session.SampleRate)),
		slog.Int("audio_bytes", len(pcm)),
	)
	return nil
}

// language picks the normalization locale: the request's voice language
// when numbers can be spelled in it, otherwise the session language.
func (h *Handler) language(req wyoming.Synthesize) string {
	if lang := req.RequestedLanguage(); lang != "" && text.Supported(lang) {
		return lang
	}
	return h.session.Language
}

func (h *Handler) stream(pcm []byte) error {
	format := wyoming.AudioFormat{
		Rate:     h.session.SampleRate,
		Width:    audio.Width,
		Channels: audio.Channels,
	}

	start, err := wyoming.AudioStart{AudioFormat: format}.Event()
	if err != nil {
		return err
	}
	if err := h.emit(start); err != nil {
		return err
	}

	chunks := audio.Chunks(pcm, audio.ChunkSize)
	h.log.Debug("sending audio chunks", slog.Int("chunks", len(chunks)))
	for _, c := range chunks {
		ev, err := wyoming.AudioChunk{AudioFormat: format, Audio: c}.Event()
		if err != nil {
			return err
		}
		if err := h.emit(ev); err != nil {
			return err
		}
		h.metrics.AudioStreamed(len(c))
	}

	stop, err := wyoming.AudioStop{}.Event()
	if err != nil {
		return err
	}
	return h.emit(stop)
}

func (h *Handler) emit(ev wyoming.Event) error {
	if err := h.out.WriteEvent(ev); err != nil {
		return fmt.Errorf("write %s: %w", ev.Type, err)
	}
	h.metrics.Event("out", ev.Type)
	return nil
}

func (h *Handler) setState(s State) {
	if h.state != s {
		h.log.Debug("state", slog.String("from", h.state.String()), slog.String("to", s.String()))
	}
	h.state = s
}
