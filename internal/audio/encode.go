package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// EncodeWAV encodes samples as a mono 16-bit PCM WAV file at sampleRate.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	// The encoder seeks back to patch the RIFF and data sizes on Close.
	var out memFile
	enc := wav.NewEncoder(&out, sampleRate, BitDepth, Channels, 1) // 1 = PCM

	err := enc.Write(&goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: Channels},
		SourceBitDepth: BitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("write PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finish WAV: %w", err)
	}
	return out.data, nil
}

// memFile is an in-memory io.WriteSeeker. Writes past the end grow it.
type memFile struct {
	data []byte
	off  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.off + int64(len(p))
	if grow := end - int64(len(m.data)); grow > 0 {
		m.data = append(m.data, make([]byte, grow)...)
	}
	copy(m.data[m.off:end], p)
	m.off = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.off
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if base+offset < 0 {
		return 0, errors.New("seek before start")
	}
	m.off = base + offset
	return m.off, nil
}
