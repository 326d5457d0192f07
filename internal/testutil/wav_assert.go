package testutil

import (
	"testing"

	"github.com/example/go-wyoming-silero/internal/audio"
)

// AssertValidWAV decodes data as a mono 16-bit PCM WAV file at sampleRate
// holding at least one sample, and returns the decoded clip.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate int) audio.Clip {
	tb.Helper()

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing RIFF/WAVE header in %d bytes", len(data))
	}

	clip, err := audio.DecodeWAV(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if clip.SampleRate != sampleRate {
		tb.Fatalf("WAV: sample rate %d, want %d", clip.SampleRate, sampleRate)
	}
	if len(clip.Samples) == 0 {
		tb.Fatal("WAV: no samples")
	}
	return clip
}

// AssertWAVDurationApprox asserts that the decoded audio length falls
// within [minSec, maxSec].
func AssertWAVDurationApprox(tb testing.TB, data []byte, sampleRate int, minSec, maxSec float64) {
	tb.Helper()

	clip := AssertValidWAV(tb, data, sampleRate)
	if d := audio.Duration(len(clip.Samples), clip.SampleRate); d < minSec || d > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", d, minSec, maxSec)
	}
}
