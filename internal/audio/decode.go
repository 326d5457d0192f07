package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when a decoded WAV is not mono 16-bit PCM.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// Clip is a decoded mono waveform.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// DecodeWAV decodes mono 16-bit PCM WAV bytes. The sample rate is taken from
// the file.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid WAV file")
	}

	if dec.NumChans != Channels {
		return Clip{}, fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, dec.NumChans, Channels)
	}
	if dec.BitDepth != BitDepth {
		return Clip{}, fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Clip{Samples: buf.Data, SampleRate: int(dec.SampleRate)}, nil
}
