// Package logging настраивает глобальный логгер приложения.
// Остальные пакеты пишут через пакетные функции github.com/charmbracelet/log.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Config хранит настройки логирования.
type Config struct {
	Level      string
	TimeFormat string
	ShowCaller bool
	Output     io.Writer
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		TimeFormat: "15:04:05",
		ShowCaller: true,
		Output:     os.Stderr,
	}
}

// Init создаёт логгер и делает его логгером по умолчанию.
func Init(cfg Config) *log.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.ShowCaller,
		Prefix:          "tolmach",
	})
	logger.SetLevel(ParseLevel(cfg.Level))

	log.SetDefault(logger)
	return logger
}

// ParseLevel переводит строку в уровень; неизвестные значения дают info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
