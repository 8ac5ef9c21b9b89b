package logger

import (
	"go.uber.org/zap/zapcore"
)

// Supported log formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatLogfmt  = "logfmt"
)

type Config struct {
	Format string        `toml:"format"`
	Level  zapcore.Level `toml:"level"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Format: FormatAuto,
		Level:  zapcore.InfoLevel,
	}
}
