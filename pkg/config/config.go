// Package config loads the cards configuration from defaults, a YAML file,
// CARDS_ environment variables and command-line flags.
package config

import (
	"io"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/japaniel/cards/pkg/db"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the full application configuration.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	Ingest     IngestConfig     `koanf:"ingest"`
	HTTP       HTTPConfig       `koanf:"http"`
	Dictionary DictionaryConfig `koanf:"dictionary"`

	// File is the config file that was read, empty when none was.
	File string `koanf:"-"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database),
		validation.Field(&c.Log),
		validation.Field(&c.Ingest),
		validation.Field(&c.HTTP),
	)
}

// DatabaseConfig selects the database/sql driver and its data source.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Validate validates the database configuration.
func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(stringsToAny(db.Drivers)...)),
		validation.Field(&c.DSN, validation.Required),
	)
}

// LogConfig holds the log handler settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate validates the log configuration.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// SlogLevel converts Level to a slog.Level. Unknown values map to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// IngestConfig tunes the bulk importers.
type IngestConfig struct {
	Workers   int `koanf:"workers"`
	BatchSize int `koanf:"batch_size"`
}

// Validate validates the ingest configuration.
func (c IngestConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
	)
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// Validate validates the HTTP configuration.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// DictionaryConfig points at the JMdict-simplified JSON file.
type DictionaryConfig struct {
	Path string `koanf:"path"`
}

// NewLogger builds the process logger described by c.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, LogFormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func stringsToAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

