package common

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/config"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
)

// LoadEnvFile loads environment variables from path when it exists.
// A missing file is not an error.
func LoadEnvFile(path string, log *logger.Logger) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debugf("environment file %s not found, using system environment", path)
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		log.Warnf("could not load environment file %s: %v", path, err)
		return err
	}

	log.Debugf("environment loaded from %s", path)
	return nil
}

// Setup loads the env file and configuration and builds the logger for a
// command.
func Setup(component string, flags *CommonFlags) (*config.Config, *logger.Logger, error) {
	bootstrap := logger.NewLogger(component, logger.LevelInfo)
	if err := LoadEnvFile(*flags.EnvFile, bootstrap); err != nil {
		return nil, bootstrap, err
	}

	cfg, err := config.Load(*flags.ConfigFile)
	if err != nil {
		return nil, bootstrap, err
	}
	if *flags.LogLevel != "" {
		cfg.LogLevel = *flags.LogLevel
	}

	return cfg, logger.NewLogger(component, logger.ParseLevel(cfg.LogLevel)), nil
}
