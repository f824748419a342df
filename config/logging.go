package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger: JSON in production, text
// elsewhere. Unknown levels fall back to info.
func InitLogger(environment, level string) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(os.Stdout)
	if environment == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
