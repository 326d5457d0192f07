package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/server"
)

func newHealthCmd() *cobra.Command {
	var uri string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a server answers describe",
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

			if _, err := server.Probe(ctx, uri); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}

	cmd.Flags().StringVar(&uri, "server", "", "Server URI to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")

	return cmd
}
