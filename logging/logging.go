// Package logging opens the structured log of one run.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"github.com/sirupsen/logrus"
)

// Logger is the log of one run, tagged with its run id.
type Logger struct {
	*logrus.Entry
	RunID string

	file *os.File
}

// Open creates a logger writing to w and, when path is not empty, appending
// to the file at path. level is a logrus level name; empty means info.
func Open(w io.Writer, path, level string) (*Logger, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		if lvl, err = logrus.ParseLevel(level); err != nil {
			return nil, err
		}
	}

	base := logrus.New()
	base.SetLevel(lvl)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	l := &Logger{RunID: uuid.NewString()}
	out := w
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		out = io.MultiWriter(w, f)
	}
	base.SetOutput(out)
	l.Entry = base.WithField("run", l.RunID)
	return l, nil
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base)}
}

// Banner logs the host the run executes on.
func (l *Logger) Banner() {
	l.WithFields(logrus.Fields{
		"cpu":     cpuid.CPU.BrandName,
		"cores":   cpuid.CPU.PhysicalCores,
		"threads": cpuid.CPU.LogicalCores,
		"avx2":    cpuid.CPU.Supports(cpuid.AVX2),
		"avx512":  cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		"go":      runtime.Version(),
	}).Info("host")
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
