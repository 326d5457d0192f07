package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/example/go-wyoming-silero/internal/config"
	"github.com/example/go-wyoming-silero/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local engine and model checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backend: %s\n", cfg.Engine.Backend)

			dcfg, prepErr := doctorConfig(cfg)
			result := doctor.Run(dcfg, out)
			if prepErr != nil {
				result.AddFailure(prepErr.Error())
				_, _ = fmt.Fprintf(out, "%s %v\n", doctor.FailMark, prepErr)
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")
			return nil
		},
	}

	return cmd
}

// doctorConfig maps the loaded configuration onto doctor checks. The tone
// backend needs neither an engine nor a model. A returned error is reported
// as an additional failure.
func doctorConfig(cfg config.Config) (doctor.Config, error) {
	dcfg := doctor.Config{
		LookPath:      exec.LookPath,
		PythonVersion: probePythonVersion,
		Language:      cfg.TTS.Language,
	}
	if cfg.Engine.Backend == config.BackendTone {
		dcfg.SkipPython = true
		return dcfg, nil
	}

	argv, err := shellwords.Parse(cfg.Engine.Command)
	if err != nil {
		return dcfg, fmt.Errorf("engine command: %w", err)
	}
	if len(argv) == 0 {
		return dcfg, errors.New("engine command is empty")
	}
	dcfg.EngineCommand = argv
	dcfg.ModelDir = cfg.Paths.ModelDir

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return dcfg, err
	}
	catalog, err := fetcher.CachedCatalog()
	if err != nil {
		// Reported by the catalog check.
		return dcfg, nil
	}
	rel, err := catalog.Resolve(cfg.TTS.Language, cfg.TTS.Model)
	if err != nil {
		return dcfg, fmt.Errorf("model: %w", err)
	}
	dcfg.PackagePath, _ = fetcher.Cached(rel)
	return dcfg, nil
}

// probePythonVersion tries python3 then python and returns the version string.
func probePythonVersion() (string, error) {
	for _, bin := range []string{"python3", "python"} {
		out, err := exec.CommandContext(context.Background(), bin, "--version").Output()
		if err != nil {
			continue
		}
		// Output is e.g. "Python 3.11.4\n"
		raw := strings.TrimPrefix(strings.TrimSpace(string(out)), "Python ")
		if raw != "" {
			return raw, nil
		}
	}

	return "", errors.New("python3/python not found on PATH")
}
