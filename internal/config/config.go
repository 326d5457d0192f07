package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-wyoming-silero/internal/ssml"
)

const DefaultCatalogURL = "https://raw.githubusercontent.com/snakers4/silero-models/master/models.yml"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	TTS      TTSConfig       `mapstructure:"tts"`
	SSML     ssml.Directives `mapstructure:"ssml"`
	Engine   EngineConfig    `mapstructure:"engine"`
	Paths    PathsConfig     `mapstructure:"paths"`
	LogLevel string          `mapstructure:"log_level"`
	Debug    bool            `mapstructure:"debug"`
}

type ServerConfig struct {
	URI             string        `mapstructure:"uri"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	EventQueue      int           `mapstructure:"event_queue"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TTSConfig struct {
	Language   string `mapstructure:"language"`
	Model      string `mapstructure:"model"`
	Speaker    string `mapstructure:"speaker"`
	SampleRate int    `mapstructure:"sample_rate"`
	CatalogURL string `mapstructure:"catalog_url"`
}

type EngineConfig struct {
	Backend string `mapstructure:"backend"`
	Command string `mapstructure:"command"`
	// Processes caps the sidecar processes of the exec backend. Zero means
	// one per server worker.
	Processes int `mapstructure:"processes"`
}

type PathsConfig struct {
	ModelDir string `mapstructure:"model_dir"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// DefaultWorkers is the default synthesis concurrency: NumCPU+4, at most 32.
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            10200,
			Workers:         DefaultWorkers(),
			QueueSize:       8,
			EventQueue:      16,
			ShutdownTimeout: 10 * time.Second,
		},
		TTS: TTSConfig{
			Language:   "en",
			Model:      "v3_en",
			SampleRate: 48000,
			CatalogURL: DefaultCatalogURL,
		},
		Engine: EngineConfig{
			Backend: BackendExec,
			Command: "silero-engine",
		},
		Paths: PathsConfig{
			ModelDir: "silero/model",
		},
		LogLevel: "info",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"uri":              "server.uri",
	"host":             "server.host",
	"port":             "server.port",
	"workers":          "server.workers",
	"queue-size":       "server.queue_size",
	"event-queue":      "server.event_queue",
	"metrics-addr":     "server.metrics_addr",
	"shutdown-timeout": "server.shutdown_timeout",
	"language":         "tts.language",
	"model":            "tts.model",
	"speaker":          "tts.speaker",
	"sample-rate":      "tts.sample_rate",
	"catalog-url":      "tts.catalog_url",
	"prosody-rate":     "ssml.prosody_rate",
	"prosody-pitch":    "ssml.prosody_pitch",
	"break-time":       "ssml.break_time",
	"break-strength":   "ssml.break_strength",
	"engine":           "engine.backend",
	"engine-command":   "engine.command",
	"engine-processes": "engine.processes",
	"model-dir":        "paths.model_dir",
	"log-level":        "log_level",
	"debug":            "debug",
}

// envNames are the bare variable names accepted alongside the SILERO_ prefixed
// form of each key.
var envNames = map[string][]string{
	"server.uri":          {"WYOMING_URI"},
	"server.host":         {"WYOMING_HOST"},
	"server.port":         {"WYOMING_PORT"},
	"debug":               {"WYOMING_DEBUG"},
	"tts.language":        {"SILERO_LANGUAGE"},
	"tts.model":           {"SILERO_MODEL"},
	"tts.speaker":         {"SILERO_SPEAKER"},
	"tts.sample_rate":     {"SILERO_SAMPLE_RATE"},
	"ssml.prosody_rate":   {"SILERO_PROSODY_RATE"},
	"ssml.prosody_pitch":  {"SILERO_PROSODY_PITCH"},
	"ssml.break_time":     {"SILERO_BREAK_TIME"},
	"ssml.break_strength": {"SILERO_BREAK_STRENGTH"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("uri", defaults.Server.URI, "Listen URI, tcp://host:port or unix://path (default tcp://<host>:<port>)")
	fs.String("host", defaults.Server.Host, "Host to listen on")
	fs.Int("port", defaults.Server.Port, "Port to listen on")
	fs.Int("workers", defaults.Server.Workers, "Concurrent synthesis calls")
	fs.Int("queue-size", defaults.Server.QueueSize, "Synthesis requests waiting for a worker")
	fs.Int("event-queue", defaults.Server.EventQueue, "Inbound events buffered per connection")
	fs.String("metrics-addr", defaults.Server.MetricsAddr, "Serve Prometheus metrics on this address (empty disables)")
	fs.Duration("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period")
	fs.String("language", defaults.TTS.Language, "Language code (en, ru, ua, de, es, fr)")
	fs.String("model", defaults.TTS.Model, "Model name (e.g. v3_en, v4_ru, multi_v2)")
	fs.String("speaker", defaults.TTS.Speaker, "Default speaker (empty selects the model's first)")
	fs.Int("sample-rate", defaults.TTS.SampleRate, "Output sample rate in Hz")
	fs.String("catalog-url", defaults.TTS.CatalogURL, "URL of the models.yml catalog")
	fs.String("prosody-rate", defaults.SSML.Rate, "Global prosody rate (x-slow, slow, medium, fast, x-fast)")
	fs.String("prosody-pitch", defaults.SSML.Pitch, "Global prosody pitch (x-low, low, medium, high, x-high)")
	fs.String("break-time", defaults.SSML.BreakTime, "Global trailing break time (e.g. 500ms, 1s)")
	fs.String("break-strength", defaults.SSML.BreakStrength, "Global trailing break strength (x-weak ... x-strong)")
	fs.String("engine", defaults.Engine.Backend, "Synthesis backend (exec|tone)")
	fs.String("engine-command", defaults.Engine.Command, "Engine sidecar command line for the exec backend")
	fs.Int("engine-processes", defaults.Engine.Processes, "Maximum sidecar processes for the exec backend (0 = one per worker)")
	fs.String("model-dir", defaults.Paths.ModelDir, "Directory caching models.yml and model packages")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.Bool("debug", defaults.Debug, "Log debug messages (overrides --log-level)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	v.SetEnvPrefix("SILERO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("wyoming-silero")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	backend, err := NormalizeBackend(cfg.Engine.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.Engine.Backend = backend
	if cfg.Server.Workers < 1 {
		cfg.Server.Workers = DefaultWorkers()
	}

	if cfg.Server.URI == "" {
		cfg.Server.URI = cfg.Server.DefaultURI()
	}
	return cfg, nil
}

// DefaultURI is tcp://<host>:<port>.
func (s ServerConfig) DefaultURI() string {
	return "tcp://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// EffectiveLogLevel is "debug" when Debug is set, otherwise LogLevel.
func (c Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("server.uri", c.Server.URI)
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.queue_size", c.Server.QueueSize)
	v.SetDefault("server.event_queue", c.Server.EventQueue)
	v.SetDefault("server.metrics_addr", c.Server.MetricsAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("tts.language", c.TTS.Language)
	v.SetDefault("tts.model", c.TTS.Model)
	v.SetDefault("tts.speaker", c.TTS.Speaker)
	v.SetDefault("tts.sample_rate", c.TTS.SampleRate)
	v.SetDefault("tts.catalog_url", c.TTS.CatalogURL)
	v.SetDefault("ssml.prosody_rate", c.SSML.Rate)
	v.SetDefault("ssml.prosody_pitch", c.SSML.Pitch)
	v.SetDefault("ssml.break_time", c.SSML.BreakTime)
	v.SetDefault("ssml.break_strength", c.SSML.BreakStrength)
	v.SetDefault("engine.backend", c.Engine.Backend)
	v.SetDefault("engine.command", c.Engine.Command)
	v.SetDefault("engine.processes", c.Engine.Processes)
	v.SetDefault("paths.model_dir", c.Paths.ModelDir)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("debug", c.Debug)
}
