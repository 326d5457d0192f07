// Package doctor provides environment preflight checks for wyoming-silero.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/go-wyoming-silero/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
// WarnMark flags a degraded but usable setup.
const (
	PassMark = "✓"
	FailMark = "✗"
	WarnMark = "!"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// EngineCommand is the argv of the engine sidecar. Empty skips the check.
	EngineCommand []string
	// LookPath resolves the engine executable, normally exec.LookPath.
	LookPath func(file string) (string, error)
	// PythonVersion returns the Python version string (e.g. "3.11.4").
	PythonVersion VersionFunc
	// SkipPython skips the Python check (tone backend or a non-Python engine).
	SkipPython bool
	// ModelDir is the model cache directory.
	ModelDir string
	// PackagePath is the expected model package. Empty skips the check.
	PackagePath string
	// Language is checked against the number-spelling locales.
	Language string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
	warnings []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// Warnings returns the list of warning messages.
func (r *Result) Warnings() []string { return append([]string(nil), r.warnings...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }
func (r *Result) warn(msg string) { r.warnings = append(r.warnings, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark, WarnMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- engine executable ------------------------------------------------
	if len(cfg.EngineCommand) == 0 {
		fmt.Fprintf(w, "%s engine command: skipped\n", PassMark)
	} else {
		exe := cfg.EngineCommand[0]
		path, err := cfg.LookPath(exe)
		if err != nil {
			res.fail(fmt.Sprintf("engine command %q: %v", exe, err))
			fmt.Fprintf(w, "%s engine command %s: not found on PATH\n", FailMark, exe)
		} else {
			fmt.Fprintf(w, "%s engine command: %s\n", PassMark, path)
		}
	}

	// ---- Python version ---------------------------------------------------
	if cfg.SkipPython || cfg.PythonVersion == nil {
		fmt.Fprintf(w, "%s python version: skipped\n", PassMark)
	} else {
		pyVer, err := cfg.PythonVersion()
		if err != nil {
			res.fail(fmt.Sprintf("python version: %v", err))
			fmt.Fprintf(w, "%s python version: not found (%v)\n", FailMark, err)
		} else if pyErr := checkPythonVersion(pyVer); pyErr != nil {
			res.fail(fmt.Sprintf("python version: %v", pyErr))
			fmt.Fprintf(w, "%s python version %s: %v\n", FailMark, pyVer, pyErr)
		} else {
			fmt.Fprintf(w, "%s python version: %s\n", PassMark, pyVer)
		}
	}

	// ---- model cache ------------------------------------------------------
	if cfg.ModelDir != "" {
		catalog := filepath.Join(cfg.ModelDir, "models.yml")
		if fi, err := os.Stat(cfg.ModelDir); err != nil || !fi.IsDir() {
			res.warn(fmt.Sprintf("model dir %q missing", cfg.ModelDir))
			fmt.Fprintf(w, "%s model dir %s: missing (created on first serve, needs network)\n", WarnMark, cfg.ModelDir)
		} else if _, err := os.Stat(catalog); err != nil {
			res.warn(fmt.Sprintf("model catalog %q not cached", catalog))
			fmt.Fprintf(w, "%s model catalog: not cached at %s\n", WarnMark, catalog)
		} else {
			fmt.Fprintf(w, "%s model catalog: %s\n", PassMark, catalog)
		}
	}
	if cfg.PackagePath != "" {
		if _, err := os.Stat(cfg.PackagePath); err != nil {
			res.fail(fmt.Sprintf("model package %q: %v", cfg.PackagePath, err))
			fmt.Fprintf(w, "%s model package %s: not found (run `model download`)\n", FailMark, cfg.PackagePath)
		} else {
			fmt.Fprintf(w, "%s model package: %s\n", PassMark, cfg.PackagePath)
		}
	}

	// ---- number normalization ---------------------------------------------
	if cfg.Language != "" {
		if text.Supported(cfg.Language) {
			fmt.Fprintf(w, "%s number normalization: %s\n", PassMark, cfg.Language)
		} else {
			res.warn(fmt.Sprintf("no number speller for language %q", cfg.Language))
			fmt.Fprintf(w, "%s number normalization: %s unsupported, digits pass through\n", WarnMark, cfg.Language)
		}
	}

	return res
}

// Python 3 minor versions the engine sidecar runs on: [min, max).
const (
	minPythonMinor = 9
	maxPythonMinor = 14
)

func checkPythonVersion(ver string) error {
	major, minor, ok := majorMinor(ver)
	if !ok {
		return fmt.Errorf("cannot parse version %q", ver)
	}
	if major != 3 || minor < minPythonMinor || minor >= maxPythonMinor {
		return fmt.Errorf("need Python 3.%d to 3.%d, got %d.%d", minPythonMinor, maxPythonMinor-1, major, minor)
	}
	return nil
}

// majorMinor extracts the first two components of a dotted version.
func majorMinor(ver string) (major, minor int, ok bool) {
	head, rest, found := strings.Cut(ver, ".")
	if !found {
		return 0, 0, false
	}
	rest, _, _ = strings.Cut(rest, ".")
	major, errMajor := strconv.Atoi(head)
	minor, errMinor := strconv.Atoi(rest)
	return major, minor, errMajor == nil && errMinor == nil
}
