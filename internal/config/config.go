package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the config file read when none is given explicitly.
const DefaultFile = "flashdeck.yaml"

// EnvPrefix is the prefix of environment variables overriding config keys.
// FLASHDECK_DECK_PATH sets deck.path.
const EnvPrefix = "FLASHDECK_"

// DeckConfig locates the import source. Path may also name a git remote.
type DeckConfig struct {
	Path     string `koanf:"path"`
	GitURL   string `koanf:"git_url" validate:"excluded_with=Path"`
	File     string `koanf:"file"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	Watch    bool   `koanf:"watch"`
}

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Config holds all runtime configuration.
// Values come from flag defaults, the YAML file, FLASHDECK_* env vars and
// changed command-line flags, later sources winning.
type Config struct {
	DB     string       `koanf:"db" validate:"required"`
	Deck   DeckConfig   `koanf:"deck"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
}

// RegisterFlags adds every config key as a flag, carrying its default.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", DefaultFile, "path to the YAML config file")
	flags.String("db", "flashdeck.db", "path to the SQLite database file")
	flags.String("deck.path", "", "CSV deck to import, or a git remote holding it")
	flags.String("deck.git_url", "", "git repository holding the CSV deck")
	flags.String("deck.file", "cards.csv", "deck file inside the git repository")
	flags.String("deck.repos_dir", "repos", "directory for git checkouts")
	flags.Bool("deck.watch", false, "re-import the deck when the file changes")
	flags.String("server.addr", "localhost:8080", "address the web server listens on")
	flags.String("log.level", "info", "log level: debug, info, warn or error")
	flags.String("log.format", "text", "log format: text or json")
}

// Load builds the configuration from the given flag set. A missing config
// file is only an error when it was named explicitly.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if path != "" && (flags.Changed("config") || exists(path)) {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKey(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("config: load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a config for values the application cannot run with.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// SlogLevel converts the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envKey maps the part of an env var after the prefix onto a config key.
// The first underscore separates the section; later ones are kept, so
// DECK_REPOS_DIR becomes deck.repos_dir.
func envKey(s string) string {
	s = strings.ToLower(s)
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	switch section {
	case "deck", "server", "log":
		return section + "." + rest
	}
	return s
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
