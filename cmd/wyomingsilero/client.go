package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/go-wyoming-silero/internal/audio"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

// clientURI turns a listen URI into one a local client can dial.
func clientURI(uri string) string {
	for _, wildcard := range []string{"tcp://0.0.0.0:", "tcp://[::]:"} {
		if strings.HasPrefix(uri, wildcard) {
			return "tcp://127.0.0.1:" + strings.TrimPrefix(uri, wildcard)
		}
	}
	return uri
}

// audioSink receives one synthesized audio stream.
type audioSink interface {
	Start(format wyoming.AudioFormat) error
	Chunk(pcm []byte) error
}

// requestSynthesis sends req and feeds the reply stream to sink until
// audio-stop. Unrelated events are skipped.
func requestSynthesis(ctx context.Context, uri string, req wyoming.Synthesize, sink audioSink) error {
	conn, err := wyoming.Dial(ctx, uri)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ev, err := req.Event()
	if err != nil {
		return err
	}
	if err := conn.WriteEvent(ev); err != nil {
		return fmt.Errorf("send synthesize: %w", err)
	}

	started := false
	for {
		ev, err := conn.ReadEventContext(ctx)
		if err != nil {
			return fmt.Errorf("await audio: %w", err)
		}
		switch ev.Type {
		case wyoming.TypeAudioStart:
			start, err := wyoming.AudioStartFromEvent(ev)
			if err != nil {
				return err
			}
			if start.Width != audio.Width || start.Channels != audio.Channels {
				return fmt.Errorf("unsupported audio format: width=%d channels=%d", start.Width, start.Channels)
			}
			if err := sink.Start(start.AudioFormat); err != nil {
				return err
			}
			started = true
		case wyoming.TypeAudioChunk:
			if !started {
				return fmt.Errorf("audio-chunk before audio-start")
			}
			if err := sink.Chunk(ev.Payload); err != nil {
				return err
			}
		case wyoming.TypeAudioStop:
			if !started {
				return fmt.Errorf("audio-stop before audio-start")
			}
			return nil
		}
	}
}
