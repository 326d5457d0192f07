package tts

import (
	"context"
	"math"
	"slices"
	"unicode/utf8"
)

// ToneEngine is a built-in engine that renders a sine tone whose length
// follows the text length. Output is deterministic, which makes it useful
// for smoke tests without a model.
type ToneEngine struct {
	SpeakerNames []string
	// PerRune is the tone length per input rune in seconds.
	PerRune float64
}

// DefaultToneSpeakers are the speakers the tone backend advertises.
var DefaultToneSpeakers = []string{"tone_a", "tone_b", "tone_c"}

// NewToneEngine returns a ToneEngine with the default speakers.
func NewToneEngine() *ToneEngine {
	return &ToneEngine{SpeakerNames: slices.Clone(DefaultToneSpeakers), PerRune: 0.05}
}

// Speakers implements SpeakerLister.
func (e *ToneEngine) Speakers() []string { return slices.Clone(e.SpeakerNames) }

// SupportsMarkup implements MarkupSupporter. Markup is stripped before the
// tone engine sees it.
func (e *ToneEngine) SupportsMarkup() bool { return false }

// Synthesize implements Engine. Each speaker gets its own pitch.
func (e *ToneEngine) Synthesize(ctx context.Context, req Request) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rate := req.SampleRate
	if rate <= 0 {
		return []float32{}, nil
	}
	n := int(float64(utf8.RuneCountInString(req.Text)) * e.PerRune * float64(rate))

	freq := 220.0 * math.Pow(2, float64(max(slices.Index(e.SpeakerNames, req.Speaker), 0))/12)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out, nil
}
