package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogging builds the JSON stdout logger. An unknown level falls back to
// info.
func SetupLogging(level string) *logrus.Logger {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	logger := logrus.Logger{
		Formatter: &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "loglevel",
			},
		},
		Out:      os.Stdout,
		Hooks:    make(logrus.LevelHooks),
		Level:    parsed,
		ExitFunc: os.Exit,
	}

	return &logger
}
