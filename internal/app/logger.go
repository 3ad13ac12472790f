package app

import "github.com/charlesng35/taskhub/pkg/logger"

// ConfigureLogging initializes the global logger from configuration.
func ConfigureLogging(cfg LoggingConfig) error {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
