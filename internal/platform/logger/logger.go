package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for JSON output and returns it.
func Setup(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, falling back to info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
