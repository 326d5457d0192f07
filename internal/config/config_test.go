package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// parsedBinder registers all config flags and parses args.
func parsedBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return &fakeBinder{fs: fs}
}

// inTempDir runs the test from an empty directory so no stray
// wyoming-silero.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 10200 {
		t.Errorf("listen = %s:%d; want 0.0.0.0:10200", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.TTS.Language != "en" || cfg.TTS.Model != "v3_en" {
		t.Errorf("TTS = %+v; want en/v3_en", cfg.TTS)
	}
	if cfg.TTS.SampleRate != 48000 {
		t.Errorf("SampleRate = %d; want 48000", cfg.TTS.SampleRate)
	}
	if cfg.TTS.Speaker != "" {
		t.Errorf("Speaker = %q; want empty", cfg.TTS.Speaker)
	}
	if cfg.SSML.Enabled() {
		t.Errorf("SSML = %+v; want no directives", cfg.SSML)
	}
	if cfg.Engine.Backend != BackendExec {
		t.Errorf("Engine.Backend = %q; want %q", cfg.Engine.Backend, BackendExec)
	}
	if cfg.LogLevel != "info" || cfg.Debug {
		t.Errorf("LogLevel = %q Debug = %v", cfg.LogLevel, cfg.Debug)
	}
	if want := min(32, runtime.NumCPU()+4); cfg.Server.Workers != want {
		t.Errorf("Workers = %d; want %d", cfg.Server.Workers, want)
	}
	if cfg.Server.Workers < 2 {
		t.Errorf("Workers = %d; one slow synthesis would stall every connection", cfg.Server.Workers)
	}
	if cfg.Engine.Processes != 0 {
		t.Errorf("Engine.Processes = %d; want 0 (one per worker)", cfg.Engine.Processes)
	}
}

// --- NormalizeBackend ---

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"exec", "exec", BackendExec, false},
		{"tone", "tone", BackendTone, false},
		{"mixed case", "TONE", BackendTone, false},
		{"surrounding spaces", "  exec  ", BackendExec, false},
		{"sidecar alias", "sidecar", BackendExec, false},
		{"empty defaults to exec", "", BackendExec, false},
		{"invalid", "onnx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBackend(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeBackend(%q) = %q, nil; want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBackend(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBackend(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	checks := []struct {
		flag string
		want string
	}{
		{"host", "0.0.0.0"},
		{"port", "10200"},
		{"language", "en"},
		{"model", "v3_en"},
		{"sample-rate", "48000"},
		{"engine", "exec"},
		{"shutdown-timeout", "10s"},
		{"debug", "false"},
	}
	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}
		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}

	for name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("flagKeys names unregistered flag %q", name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{Cmd: parsedBinder(t, defaults), Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URI != "tcp://0.0.0.0:10200" {
		t.Errorf("URI = %q; want tcp://0.0.0.0:10200", cfg.Server.URI)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v; want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.TTS != defaults.TTS {
		t.Errorf("TTS = %+v; want %+v", cfg.TTS, defaults.TTS)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	inTempDir(t)
	defaults := DefaultConfig()
	binder := parsedBinder(t, defaults,
		"--language=ru",
		"--model=v4_ru",
		"--speaker=xenia",
		"--port=10300",
		"--prosody-rate=slow",
		"--break-time=500ms",
		"--engine=tone",
		"--shutdown-timeout=3s",
	)

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TTS.Language != "ru" || cfg.TTS.Model != "v4_ru" || cfg.TTS.Speaker != "xenia" {
		t.Errorf("TTS = %+v", cfg.TTS)
	}
	if cfg.Server.URI != "tcp://0.0.0.0:10300" {
		t.Errorf("URI = %q", cfg.Server.URI)
	}
	if cfg.SSML.Rate != "slow" || cfg.SSML.BreakTime != "500ms" {
		t.Errorf("SSML = %+v", cfg.SSML)
	}
	if cfg.Engine.Backend != BackendTone {
		t.Errorf("Engine.Backend = %q", cfg.Engine.Backend)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_CompatibilityEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("WYOMING_HOST", "127.0.0.1")
	t.Setenv("WYOMING_PORT", "10555")
	t.Setenv("WYOMING_DEBUG", "true")
	t.Setenv("SILERO_LANGUAGE", "de")
	t.Setenv("SILERO_MODEL", "v3_de")
	t.Setenv("SILERO_SAMPLE_RATE", "24000")
	t.Setenv("SILERO_PROSODY_PITCH", "high")
	t.Setenv("SILERO_BREAK_STRENGTH", "strong")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URI != "tcp://127.0.0.1:10555" {
		t.Errorf("URI = %q", cfg.Server.URI)
	}
	if !cfg.Debug || cfg.EffectiveLogLevel() != "debug" {
		t.Errorf("Debug = %v level = %q", cfg.Debug, cfg.EffectiveLogLevel())
	}
	if cfg.TTS.Language != "de" || cfg.TTS.Model != "v3_de" || cfg.TTS.SampleRate != 24000 {
		t.Errorf("TTS = %+v", cfg.TTS)
	}
	if cfg.SSML.Pitch != "high" || cfg.SSML.BreakStrength != "strong" {
		t.Errorf("SSML = %+v", cfg.SSML)
	}
}

func TestLoad_PrefixedEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("SILERO_LOG_LEVEL", "warn")
	t.Setenv("SILERO_ENGINE_COMMAND", "python3 -m silero_engine")
	t.Setenv("SILERO_SERVER_WORKERS", "3")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warn", cfg.LogLevel)
	}
	if cfg.Engine.Command != "python3 -m silero_engine" {
		t.Errorf("Engine.Command = %q", cfg.Engine.Command)
	}
	if cfg.Server.Workers != 3 {
		t.Errorf("Workers = %d; want 3", cfg.Server.Workers)
	}
}

func TestLoad_NonPositiveWorkersUseDefault(t *testing.T) {
	inTempDir(t)
	t.Setenv("SILERO_SERVER_WORKERS", "0")
	t.Setenv("SILERO_ENGINE_PROCESSES", "2")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Workers != DefaultWorkers() {
		t.Errorf("Workers = %d; want %d", cfg.Server.Workers, DefaultWorkers())
	}
	if cfg.Engine.Processes != 2 {
		t.Errorf("Engine.Processes = %d; want 2", cfg.Engine.Processes)
	}
}

func TestLoad_ExplicitURIWins(t *testing.T) {
	inTempDir(t)
	t.Setenv("WYOMING_URI", "unix:///tmp/silero.sock")
	t.Setenv("WYOMING_PORT", "1")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URI != "unix:///tmp/silero.sock" {
		t.Errorf("URI = %q", cfg.Server.URI)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := inTempDir(t)
	cfgFile := filepath.Join(dir, "settings.yaml")
	content := `
tts:
  language: es
  model: v3_es
  speaker: es_1
server:
  port: 11000
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("SILERO_MODEL", "v3_es_env")
	t.Setenv("SILERO_SPEAKER", "es_2")

	defaults := DefaultConfig()
	binder := parsedBinder(t, defaults, "--speaker=es_0")

	cfg, err := Load(LoadOptions{Cmd: binder, ConfigFile: cfgFile, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TTS.Speaker != "es_0" {
		t.Errorf("flag should win: Speaker = %q", cfg.TTS.Speaker)
	}
	if cfg.TTS.Model != "v3_es_env" {
		t.Errorf("env should beat file: Model = %q", cfg.TTS.Model)
	}
	if cfg.TTS.Language != "es" || cfg.Server.Port != 11000 {
		t.Errorf("file should beat default: Language = %q Port = %d", cfg.TTS.Language, cfg.Server.Port)
	}
	if cfg.TTS.SampleRate != 48000 {
		t.Errorf("default kept: SampleRate = %d", cfg.TTS.SampleRate)
	}
}

func TestLoad_DiscoversConfigFile(t *testing.T) {
	dir := inTempDir(t)
	content := "ssml:\n  prosody_rate: fast\nengine:\n  backend: tone\n"
	if err := os.WriteFile(filepath.Join(dir, "wyoming-silero.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SSML.Rate != "fast" || cfg.Engine.Backend != BackendTone {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	inTempDir(t)
	t.Setenv("SILERO_ENGINE_BACKEND", "torch")

	if _, err := Load(LoadOptions{Defaults: DefaultConfig()}); err == nil {
		t.Error("Load() = nil; want error for invalid backend")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := inTempDir(t)
	cfgFile := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(LoadOptions{ConfigFile: cfgFile, Defaults: DefaultConfig()}); err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	inTempDir(t)
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/wyoming-silero.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestDefaultURI_IPv6(t *testing.T) {
	got := ServerConfig{Host: "::1", Port: 10200}.DefaultURI()
	if got != "tcp://[::1]:10200" {
		t.Errorf("DefaultURI = %q", got)
	}
}
