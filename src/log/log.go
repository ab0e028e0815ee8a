package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vermigrate/vermigrate/src/configs"
)

// New configures the logrus standard logger from the config and returns it.
// Debug overrides the configured level and turns on caller reporting.
func New(config *configs.Config) (*logrus.Logger, error) {
	logLevel := logrus.InfoLevel
	if config.Log.Level != "" {
		parsed, err := logrus.ParseLevel(config.Log.Level)
		if err != nil {
			return nil, err
		}
		logLevel = parsed
	}
	if config.Debug {
		logLevel = logrus.DebugLevel
	}

	writers := []io.Writer{os.Stderr}
	if config.Log.File != "" {
		logFile, err := os.OpenFile(config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, logFile)
	}

	logger := logrus.StandardLogger()
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if config.Debug {
		logger.SetReportCaller(true)
	}
	logger.SetLevel(logLevel)
	return logger, nil
}
