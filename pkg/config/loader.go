package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable the loader reads.
// A double underscore separates nesting levels: CARDS_DATABASE__DSN sets
// database.dsn.
const EnvPrefix = "CARDS_"

// DefaultFiles are tried in order when no config file is named explicitly.
var DefaultFiles = []string{"cards.yaml", "cards.yml"}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are command options and never reach the config.
var flagKeys = map[string]string{
	"driver":     "database.driver",
	"dsn":        "database.dsn",
	"log-level":  "log.level",
	"log-format": "log.format",
	"workers":    "ingest.workers",
	"batch-size": "ingest.batch_size",
	"addr":       "http.addr",
	"dict-path":  "dictionary.path",
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"database.driver":   "sqlite3",
		"database.dsn":      "cards.db",
		"log.level":         "info",
		"log.format":        LogFormatText,
		"ingest.workers":    4,
		"ingest.batch_size": 50,
		"http.addr":         ":8080",
		"dictionary.path":   "jmdict-eng-common.json",
	}
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// An explicit cfgFile must exist; otherwise the first of DefaultFiles found in
// the working directory is used, if any. Only flags that were set on the
// command line are applied. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// CARDS_INGEST__BATCH_SIZE -> ingest.batch_size
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}
