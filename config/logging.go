package config

import (
	"fmt"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the logging section to the global logrus
// logger. With a file path set, log lines are mirrored to that file
// through an lfshook hook so cron-driven runs leave a trail.
func ConfigureLogging(cfg LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if cfg.FilePath != "" {
		log.AddHook(lfshook.NewHook(cfg.FilePath, log.StandardLogger().Formatter))
	}

	return nil
}
