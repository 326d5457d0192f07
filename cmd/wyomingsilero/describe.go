package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/server"
)

func newDescribeCmd() *cobra.Command {
	var uri string
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Query a running server for its voices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if uri == "" {
				uri = clientURI(cfg.Server.URI)
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			info, err := server.Probe(ctx, uri)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}

			for _, program := range info.Tts {
				version := "unknown"
				if program.Version != nil {
					version = *program.Version
				}
				_, _ = fmt.Fprintf(out, "%s %s (%s)\n", program.Name, version, program.Description)
				for _, voice := range program.Voices {
					_, _ = fmt.Fprintf(out, "  %-16s %s\n", voice.Name, strings.Join(voice.Languages, ","))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "server", "", "Server URI (defaults to the configured listen URI)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw info event data")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")

	return cmd
}
