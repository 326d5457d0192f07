package tts

import (
	"context"
	"log/slog"
	"slices"
)

// Engine turns text or a markup document into a mono waveform with samples
// in [-1, 1] at req.SampleRate. Implementations must tolerate concurrent
// calls.
type Engine interface {
	Synthesize(ctx context.Context, req Request) ([]float32, error)
}

// Request is a single engine call. Markup selects the engine's markup entry
// point; Text then holds a <speak> document.
type Request struct {
	Text       string
	Markup     bool
	Speaker    string
	SampleRate int
}

// SpeakerLister is implemented by engines that know their speaker set.
type SpeakerLister interface {
	Speakers() []string
}

// MarkupSupporter is implemented by engines that report whether they accept
// markup documents.
type MarkupSupporter interface {
	SupportsMarkup() bool
}

// Capabilities are the optional engine facets, probed once at startup.
type Capabilities struct {
	Speakers []string
	Markup   bool
}

// Probe queries the optional facets of e. Engines without a MarkupSupporter
// are treated as plain-text only.
func Probe(e Engine) Capabilities {
	var c Capabilities
	if l, ok := e.(SpeakerLister); ok {
		c.Speakers = slices.Clone(l.Speakers())
	}
	if m, ok := e.(MarkupSupporter); ok {
		c.Markup = m.SupportsMarkup()
	}
	return c
}

// Known reports whether speaker may be passed to the engine. With no known
// speaker set every name is accepted.
func (c Capabilities) Known(speaker string) bool {
	return len(c.Speakers) == 0 || slices.Contains(c.Speakers, speaker)
}

// ResolveDefault picks the session default speaker. An empty configured
// speaker selects the engine's first speaker; an unknown one is replaced by
// it with a warning. Without engine speakers the configured value is kept.
func (c Capabilities) ResolveDefault(configured string, log *slog.Logger) string {
	if len(c.Speakers) == 0 {
		return configured
	}
	if configured == "" {
		return c.Speakers[0]
	}
	if !slices.Contains(c.Speakers, configured) {
		if log != nil {
			log.Warn("configured speaker not offered by engine, using first available",
				slog.String("speaker", configured),
				slog.String("fallback", c.Speakers[0]),
				slog.Any("available", c.Speakers),
			)
		}
		return c.Speakers[0]
	}
	return configured
}
