package utils

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process-wide logger. LOG_LEVEL sets the level, info by default.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()

		logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		logger.SetLevel(logLevel)

		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
		logger.SetOutput(os.Stdout)
	})

	return logger
}
