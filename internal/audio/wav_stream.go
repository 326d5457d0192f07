package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// streamingSize marks an unknown RIFF and data chunk length.
const streamingSize = 0xFFFFFFFF

// WriteWAVHeaderStreaming writes a 44-byte mono 16-bit PCM WAV header for a
// stream whose total length is not known in advance. PCM16 output can be
// appended directly after it.
func WriteWAVHeaderStreaming(w io.Writer, sampleRate int) (int, error) {
	if sampleRate < 1 {
		return 0, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	byteRate := uint32(sampleRate * Channels * Width)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], streamingSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], Channels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], Channels*Width)
	binary.LittleEndian.PutUint16(hdr[34:36], BitDepth)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], streamingSize)

	return w.Write(hdr[:])
}
