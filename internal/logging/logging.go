// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name; unknown names fall back to info.
	Level string
	// Dir, if set, receives a daily log file named YYYY-MM-DD.log.
	Dir string
	// Output is the terminal writer. Nil means stderr; set Quiet to log
	// only to Dir.
	Output io.Writer
	Quiet  bool
}

// New returns a logger writing nested-formatted lines to the configured
// outputs. The returned func closes the log file, if any; the logger must
// not be used afterwards.
func New(opts Options) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldsOrder:     []string{"job", "format", "z", "x", "y"},
	})

	closeLog := func() error { return nil }
	var outputs []io.Writer
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		name := filepath.Join(opts.Dir, time.Now().Format("2006-01-02.log"))
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = f.Close
		outputs = append(outputs, f)
	}
	if !opts.Quiet {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		outputs = append(outputs, out)
	}
	if len(outputs) == 0 {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(outputs...)))
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log, closeLog, nil
}
