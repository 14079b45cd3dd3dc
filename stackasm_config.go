package stackasm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stackasm/assembler"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Config is the file form of the assembly options.
//
//	format = "legacy"
//	max_passes = 20
//	log_level = "debug"
type Config struct {
	Format    string `toml:"format"`
	MaxPasses int    `toml:"max_passes"`
	LogLevel  string `toml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Format:    op.Default.Name,
		MaxPasses: assembler.DefaultMaxPasses,
		LogLevel:  zerolog.WarnLevel.String(),
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses TOML configuration text. Unknown keys are rejected.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every value names something that exists.
func (c Config) Validate() error {
	if _, err := op.ProfileByName(c.Format); err != nil {
		return err
	}
	if c.MaxPasses < 0 {
		return fmt.Errorf("max_passes must not be negative, got %d", c.MaxPasses)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// Logger returns a logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Options converts the configuration to options. Log events go to
// standard error.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger, err := c.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithFormat(c.Format),
		WithMaxPasses(c.MaxPasses),
		WithLogger(logger),
	}, nil
}
