package tilemap

import (
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
)

// NewLogger builds a logger with the nested formatter writing to all outputs,
// stderr when none are given. An unknown level falls back to info.
func NewLogger(level string, outputs ...io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if len(outputs) == 0 {
		outputs = []io.Writer{os.Stderr}
	}
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(outputs...)))

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func defaultLogger() logrus.FieldLogger {
	return NewLogger(logrus.WarnLevel.String())
}

// newLoadID tags the log lines of one load attempt.
func newLoadID() string {
	id, err := shortid.Generate()
	if err != nil {
		return "-"
	}
	return id
}
