package main

import (
	"testing"

	"github.com/example/go-wyoming-silero/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"serve", "describe", "synth", "health", "doctor", "model", "bench"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "uri", "language", "speaker", "engine", "debug"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	if _, err := requireConfig(); err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()
	activeCfg.Server.URI = activeCfg.Server.DefaultURI()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}
	if got.TTS.Language != "en" {
		t.Errorf("unexpected language: %q", got.TTS.Language)
	}
}

func TestClientURI(t *testing.T) {
	tests := map[string]string{
		"tcp://0.0.0.0:10200":   "tcp://127.0.0.1:10200",
		"tcp://[::]:10200":      "tcp://127.0.0.1:10200",
		"tcp://10.0.0.5:10200":  "tcp://10.0.0.5:10200",
		"unix:///run/tts.sock":  "unix:///run/tts.sock",
		"tcp://localhost:10200": "tcp://localhost:10200",
	}
	for in, want := range tests {
		if got := clientURI(in); got != want {
			t.Errorf("clientURI(%q) = %q; want %q", in, got, want)
		}
	}
}
