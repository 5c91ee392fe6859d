package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger = logrus.New()

// InitLogger replaces Log. Debug mode logs human readable text with full
// timestamps; otherwise entries are JSON. CLI output goes to stdout, so logs
// are written to stderr.
func InitLogger(debug bool) *logrus.Logger {
	Log = New(os.Stderr, debug)
	return Log
}

func New(out io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = out

	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
