// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    argv := testutil.RequireEngine(t)
//	    pkg := testutil.RequireModelPackage(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"testing"

	"github.com/mattn/go-shellwords"
)

// DefaultEngineCommand is used when SILERO_ENGINE_COMMAND is unset.
const DefaultEngineCommand = "silero-engine"

// RequireEngine skips the test if the engine sidecar named by
// SILERO_ENGINE_COMMAND (default silero-engine) is not on PATH. It returns
// the command line for NewExecEngine.
func RequireEngine(tb testing.TB) string {
	tb.Helper()

	command := os.Getenv("SILERO_ENGINE_COMMAND")
	if command == "" {
		command = DefaultEngineCommand
	}

	argv, err := shellwords.Parse(command)
	if err != nil || len(argv) == 0 {
		tb.Skipf("engine command %q cannot be parsed: %v", command, err)
		return ""
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		tb.Skipf("engine sidecar not available (%q not in PATH); set SILERO_ENGINE_COMMAND to override", argv[0])
		return ""
	}
	return command
}

// RequireModelPackage skips the test unless SILERO_TEST_PACKAGE names an
// existing model package, and returns its path.
func RequireModelPackage(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv("SILERO_TEST_PACKAGE")
	if p == "" {
		tb.Skipf("SILERO_TEST_PACKAGE not set")
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		tb.Skipf("model package not found at SILERO_TEST_PACKAGE=%q", p)
		return ""
	}
	return p
}
