// Package wyoming implements the Wyoming event framing used by voice
// assistants to talk to speech services.
//
// Each event on the wire is a single JSON header line, optionally followed by
// data_length bytes of JSON data and payload_length bytes of binary payload:
//
//	{"type":"audio-chunk","version":"1.5.2","data_length":41,"payload_length":2048}\n
//	{"rate":48000,"width":2,"channels":1}<2048 bytes of PCM>
package wyoming

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Version is the protocol version stamped into outgoing headers.
const Version = "1.5.2"

const (
	// MaxHeaderBytes bounds a single header line.
	MaxHeaderBytes = 64 * 1024
	// MaxFrameBytes bounds the data and payload sections of one event.
	MaxFrameBytes = 16 * 1024 * 1024
)

var (
	// ErrMalformedHeader is returned for a header line that is not a valid
	// event header. The offending line has been consumed, so the caller may
	// keep reading.
	ErrMalformedHeader = errors.New("malformed event header")
	// ErrFrameTooLarge is returned when a header announces more data or
	// payload than the reader's frame limit. The stream cannot be resynchronized.
	ErrFrameTooLarge = errors.New("event frame too large")
)

// Event is one protocol message. Data holds the raw JSON object (may be
// nil); Payload holds the binary section (may be nil).
type Event struct {
	Type    string
	Data    json.RawMessage
	Payload []byte
}

// NewEvent builds an event, marshalling data when it is non-nil.
func NewEvent(typ string, data any, payload []byte) (Event, error) {
	ev := Event{Type: typ, Payload: payload}
	if data == nil {
		return ev, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s data: %w", typ, err)
	}
	ev.Data = raw
	return ev, nil
}

// Decode unmarshals the event data into v. An event without data decodes as
// an empty object.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	return nil
}

type header struct {
	Type          string          `json:"type"`
	Version       string          `json:"version,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	DataLength    int             `json:"data_length,omitempty"`
	PayloadLength int             `json:"payload_length,omitempty"`
}

// Reader decodes events from a byte stream.
type Reader struct {
	br       *bufio.Reader
	maxFrame int
}

func NewReader(r io.Reader) *Reader {
	return NewReaderLimit(r, MaxFrameBytes)
}

// NewReaderLimit is NewReader with a custom bound on the data and payload
// sections of one event.
func NewReaderLimit(r io.Reader, maxFrame int) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 4096), maxFrame: maxFrame}
}

// ReadEvent reads the next event. Blank lines between events are skipped.
// io.EOF is returned only at a clean event boundary.
func (r *Reader) ReadEvent() (Event, error) {
	line, err := r.readLine()
	if err != nil {
		return Event{}, err
	}

	var hdr header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if hdr.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedHeader)
	}
	if hdr.DataLength < 0 || hdr.PayloadLength < 0 {
		return Event{}, fmt.Errorf("%w: negative length", ErrMalformedHeader)
	}
	if hdr.DataLength > r.maxFrame || hdr.PayloadLength > r.maxFrame {
		return Event{}, fmt.Errorf("%w: data=%d payload=%d", ErrFrameTooLarge, hdr.DataLength, hdr.PayloadLength)
	}

	ev := Event{Type: hdr.Type}
	if isObject(hdr.Data) {
		ev.Data = hdr.Data
	}

	var framed []byte
	if hdr.DataLength > 0 {
		framed = make([]byte, hdr.DataLength)
		if _, err := io.ReadFull(r.br, framed); err != nil {
			return Event{}, fmt.Errorf("read %s data: %w", hdr.Type, unexpectedEOF(err))
		}
	}

	if hdr.PayloadLength > 0 {
		ev.Payload = make([]byte, hdr.PayloadLength)
		if _, err := io.ReadFull(r.br, ev.Payload); err != nil {
			return Event{}, fmt.Errorf("read %s payload: %w", hdr.Type, unexpectedEOF(err))
		}
	}

	if framed != nil {
		merged, err := mergeData(ev.Data, framed)
		if err != nil {
			// The whole frame has been consumed, so the stream stays usable.
			return Event{}, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
		}
		ev.Data = merged
	}

	return ev, nil
}

func (r *Reader) readLine() ([]byte, error) {
	for {
		var line []byte
		for {
			chunk, err := r.br.ReadSlice('\n')
			line = append(line, chunk...)
			if len(line) > MaxHeaderBytes {
				return nil, fmt.Errorf("%w: header exceeds %d bytes", ErrFrameTooLarge, MaxHeaderBytes)
			}
			if err == nil {
				break
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
	}
}

// mergeData overlays the separately framed data object onto the inline one.
func mergeData(inline json.RawMessage, framed []byte) (json.RawMessage, error) {
	if !isObject(framed) {
		return nil, errors.New("data section is not a JSON object")
	}
	if len(inline) == 0 {
		return json.RawMessage(framed), nil
	}
	var base, extra map[string]json.RawMessage
	if err := json.Unmarshal(inline, &base); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(framed, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		base[k] = v
	}
	out, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 1 && raw[0] == '{' && json.Valid(raw)
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Writer encodes events onto a byte stream. It is safe for concurrent use;
// each event is written and flushed atomically.
type Writer struct {
	mu sync.Mutex
	bw *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 8192)}
}

// WriteEvent writes the header, data and payload of ev and flushes.
func (w *Writer) WriteEvent(ev Event) error {
	hdr := header{
		Type:          ev.Type,
		Version:       Version,
		DataLength:    len(ev.Data),
		PayloadLength: len(ev.Payload),
	}
	line, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("encode %s header: %w", ev.Type, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.bw.Write(line); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := w.bw.Write(ev.Data); err != nil {
		return err
	}
	if _, err := w.bw.Write(ev.Payload); err != nil {
		return err
	}
	return w.bw.Flush()
}
