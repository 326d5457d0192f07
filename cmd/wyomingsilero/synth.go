package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/audio"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var voice string
	var language string
	var uri string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text on a running server and write a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if uri == "" {
				uri = clientURI(cfg.Server.URI)
			}

			inputText, err := readSynthText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			req := wyoming.Synthesize{Text: inputText}
			if voice != "" || language != "" {
				req.Voice = &wyoming.SynthesizeVoice{Name: voice, Language: language}
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if out == "-" {
				return requestSynthesis(ctx, uri, req, &streamSink{w: cmd.OutOrStdout()})
			}

			sink := &bufferSink{}
			if err := requestSynthesis(ctx, uri, req, sink); err != nil {
				return err
			}
			wavData, err := sink.WAV()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, wavData, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%.2fs at %d Hz)\n",
				out, audio.Duration(len(sink.pcm)/audio.Width, sink.format.Rate), sink.format.Rate)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice name to request (empty uses the server default)")
	cmd.Flags().StringVar(&language, "voice-language", "", "Language hint sent with the request")
	cmd.Flags().StringVar(&uri, "server", "", "Server URI (defaults to the configured listen URI)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall request timeout")

	return cmd
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}

// bufferSink collects the stream for a seekable WAV file.
type bufferSink struct {
	format wyoming.AudioFormat
	pcm    []byte
}

func (b *bufferSink) Start(format wyoming.AudioFormat) error {
	b.format = format
	return nil
}

func (b *bufferSink) Chunk(pcm []byte) error {
	b.pcm = append(b.pcm, pcm...)
	return nil
}

func (b *bufferSink) WAV() ([]byte, error) {
	return audio.EncodeWAV(audio.Float32(b.pcm), b.format.Rate)
}

// streamSink writes a streaming WAV header on audio-start and appends PCM as
// it arrives.
type streamSink struct {
	w io.Writer
}

func (s *streamSink) Start(format wyoming.AudioFormat) error {
	_, err := audio.WriteWAVHeaderStreaming(s.w, format.Rate)
	return err
}

func (s *streamSink) Chunk(pcm []byte) error {
	_, err := s.w.Write(pcm)
	return err
}
