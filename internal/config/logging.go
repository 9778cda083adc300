package config

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies LogLevel and LogFormat to the standard logrus
// logger and directs it to out.
func ConfigureLogging(cfg *Config, out io.Writer) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(out)

	switch cfg.LogFormat {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log_format: unknown format %q (want text or json)", cfg.LogFormat)
	}
	return nil
}
