package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger. Production gets JSON lines for
// the log pipeline, everything else gets the human-readable text format.
func NewLogger(environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// ComponentLogger tags a logger entry with the component emitting it.
func ComponentLogger(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}
