// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup applies level and format to the standard logrus logger.
// A nil writer means stderr.
func Setup(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	if out == nil {
		out = os.Stderr
	}

	switch format {
	case "", FormatText:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case FormatJSON:
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	return nil
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
