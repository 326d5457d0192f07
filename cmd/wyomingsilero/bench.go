package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/bench"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		voice        string
		uri          string
		runs         int
		format       string
		rtfThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark synthesis latency and realtime factor against a server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}
			if uri == "" {
				uri = clientURI(cfg.Server.URI)
			}

			req := wyoming.Synthesize{Text: text}
			if voice != "" {
				req.Voice = &wyoming.SynthesizeVoice{Name: voice}
			}

			results, err := bench.Measure(cmd.Context(), runs, func(ctx context.Context, rec *bench.Recorder) error {
				return requestSynthesis(ctx, uri, req, rec)
			})
			if err != nil {
				return err
			}
			rep := bench.Summarize(results)

			switch format {
			case "json":
				if err := bench.FormatJSON(rep, cmd.OutOrStdout()); err != nil {
					return err
				}
			default:
				bench.FormatTable(rep, cmd.OutOrStdout())
			}

			return bench.CheckRTFThreshold(rep.MeanRTF, rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize for each run (required)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice name to request")
	cmd.Flags().StringVar(&uri, "server", "", "Server URI (defaults to the configured listen URI)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of synthesis runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")

	return cmd
}
