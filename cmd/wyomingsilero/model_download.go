package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/config"
	"github.com/example/go-wyoming-silero/internal/model"
)

func newFetcher(cfg config.Config) (*model.Fetcher, error) {
	return model.NewFetcher(model.FetcherOptions{
		Dir:        cfg.Paths.ModelDir,
		CatalogURL: cfg.TTS.CatalogURL,
		Logger:     slog.Default(),
		Progress:   os.Stderr,
	})
}

func newModelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download the catalog and the configured model package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			pkg, err := fetcher.Ensure(ctx, cfg.TTS.Language, cfg.TTS.Model)
			if err != nil {
				return fmt.Errorf("model download failed: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pkg.Path)
			return err
		},
	}
}

func newModelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog languages and models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			catalog, err := fetcher.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, lang := range catalog.Languages() {
				for _, name := range catalog.Models(lang) {
					_, _ = fmt.Fprintf(out, "%s\t%s\n", lang, name)
				}
			}
			return nil
		},
	}
}
