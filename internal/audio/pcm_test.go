package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestPCM16(t *testing.T) {
	samples := []float32{0, 1, -1, 0.5, -0.5, 2, -3, float32(math.NaN()), 0.99999}
	want := []int16{0, 32767, -32767, 16383, -16383, 32767, -32768, 0, 32766}

	pcm := PCM16(samples)
	if len(pcm) != len(samples)*2 {
		t.Fatalf("PCM16 length = %d; want %d", len(pcm), len(samples)*2)
	}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		if got != w {
			t.Errorf("sample[%d] (%v) = %d; want %d", i, samples[i], got, w)
		}
	}
}

func TestPCM16Empty(t *testing.T) {
	if got := PCM16(nil); len(got) != 0 {
		t.Fatalf("PCM16(nil) = %d bytes; want 0", len(got))
	}
}

func TestFloat32InvertsPCM16(t *testing.T) {
	in := []float32{0, 0.25, -0.25, 1, -1}
	out := Float32(PCM16(in))
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/32767 {
			t.Errorf("sample[%d] = %v; want ~%v", i, out[i], in[i])
		}
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		n          int
		wantChunks int
		wantLast   int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2048, 1, 2048},
		{2049, 2, 1},
		{4096, 2, 2048},
		{5000, 3, 904},
	}
	for _, tt := range tests {
		chunks := Chunks(make([]byte, tt.n), ChunkSize)
		if len(chunks) != tt.wantChunks {
			t.Errorf("Chunks(%d) = %d chunks; want %d", tt.n, len(chunks), tt.wantChunks)
			continue
		}
		if tt.wantChunks > 0 && len(chunks[len(chunks)-1]) != tt.wantLast {
			t.Errorf("Chunks(%d) last chunk = %d bytes; want %d", tt.n, len(chunks[len(chunks)-1]), tt.wantLast)
		}
	}
}

func TestChunksReassemble(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pcm := rapid.SliceOfN(rapid.Byte(), 0, 20000).Draw(rt, "pcm")
		size := rapid.IntRange(1, 4096).Draw(rt, "size")

		chunks := Chunks(pcm, size)

		want := (len(pcm) + size - 1) / size
		if len(chunks) != want {
			rt.Fatalf("got %d chunks for %d bytes / %d; want %d", len(chunks), len(pcm), size, want)
		}
		var joined []byte
		for i, c := range chunks {
			if len(c) == 0 || len(c) > size {
				rt.Fatalf("chunk %d has %d bytes (size %d)", i, len(c), size)
			}
			if i < len(chunks)-1 && len(c) != size {
				rt.Fatalf("non-final chunk %d is short: %d", i, len(c))
			}
			joined = append(joined, c...)
		}
		if !bytes.Equal(joined, pcm) {
			rt.Fatalf("reassembled bytes differ")
		}
	})
}

func TestChunksDoNotAliasNeighbours(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5}
	chunks := Chunks(pcm, 2)
	chunks[0] = append(chunks[0], 9)
	if pcm[2] != 3 {
		t.Fatalf("appending to a chunk overwrote the next one: %v", pcm)
	}
}

func TestPCM16Length(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		samples := rapid.SliceOf(rapid.Float32Range(-2, 2)).Draw(rt, "samples")
		if got := len(PCM16(samples)); got != 2*len(samples) {
			rt.Fatalf("PCM16 length %d; want %d", got, 2*len(samples))
		}
	})
}
