package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is the process configuration, read from the environment
type Config struct {
	Port             string
	AllowedOrigins   []string
	MapPath          string
	MaxPlayers       int
	IdleTimeout      time.Duration
	TurnTimeout      time.Duration
	QueueSize        int
	EnqueueTimeout   time.Duration
	SubscriberBuffer int
	AdminToken       string
	Debug            bool
	LogFormat        string
}

// Load reads .env files if present and then the environment. A missing .env
// is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv function, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:       or(getenv("PORT"), "8080"),
		MapPath:    getenv("MAP_PATH"),
		AdminToken: getenv("ADMIN_TOKEN"),
		Debug:      getenv("DEBUG") != "",
		LogFormat:  or(getenv("LOG_FORMAT"), "json"),
	}
	for _, o := range strings.Split(getenv("ORIGIN_ALLOWLIST"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	var errs []error
	cfg.MaxPlayers = intVar(getenv, "MAX_PLAYERS", 6, &errs)
	cfg.QueueSize = intVar(getenv, "QUEUE_SIZE", 64, &errs)
	cfg.SubscriberBuffer = intVar(getenv, "SUBSCRIBER_BUFFER", 32, &errs)
	cfg.IdleTimeout = durationVar(getenv, "IDLE_TIMEOUT", 10*time.Minute, &errs)
	cfg.TurnTimeout = durationVar(getenv, "TURN_TIMEOUT", 0, &errs)
	cfg.EnqueueTimeout = durationVar(getenv, "ENQUEUE_TIMEOUT", 2*time.Second, &errs)

	if cfg.MaxPlayers < 2 {
		errs = append(errs, fmt.Errorf("MAX_PLAYERS must be at least 2, got %d", cfg.MaxPlayers))
	}
	if cfg.QueueSize < 1 || cfg.SubscriberBuffer < 1 {
		errs = append(errs, errors.New("QUEUE_SIZE and SUBSCRIBER_BUFFER must be positive"))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetupLogging configures the global zerolog logger.
func (c Config) SetupLogging(out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if c.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intVar(getenv func(string) string, key string, def int, errs *[]error) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func durationVar(getenv func(string) string, key string, def time.Duration, errs *[]error) time.Duration {
	v := getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
