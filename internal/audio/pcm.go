package audio

import (
	"encoding/binary"
	"math"
)

// Wire format of streamed audio.
const (
	BitDepth  = 16
	Width     = BitDepth / 8 // bytes per sample
	Channels  = 1
	ChunkSize = 2048 // bytes per audio-chunk payload
)

// PCM16 converts samples to signed 16-bit little-endian PCM. Each sample is
// scaled by 32767, clamped to [-32768, 32767] and truncated toward zero.
// NaN encodes as silence.
func PCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*Width)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*Width:], uint16(toInt16(s)))
	}
	return out
}

func toInt16(s float32) int16 {
	v := float64(s) * 32767
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// Float32 decodes 16-bit little-endian PCM back to samples in [-1, 1]. A
// trailing odd byte is ignored.
func Float32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/Width)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[i*Width:]))
		out[i] = float32(v) / 32767
		if out[i] < -1 {
			out[i] = -1
		}
	}
	return out
}

// Chunks splits pcm into consecutive slices of at most size bytes. The
// slices share pcm's backing array. Empty input yields no chunks.
func Chunks(pcm []byte, size int) [][]byte {
	if size <= 0 {
		size = ChunkSize
	}
	if len(pcm) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(pcm)+size-1)/size)
	for off := 0; off < len(pcm); off += size {
		end := min(off+size, len(pcm))
		out = append(out, pcm[off:end:end])
	}
	return out
}

// Duration returns the playback length of n samples at rate in seconds.
func Duration(n, rate int) float64 {
	if rate <= 0 {
		return 0
	}
	return float64(n) / float64(rate)
}
