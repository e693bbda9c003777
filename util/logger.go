// Package util - Logging setup for the command line tools.
package util

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	// Level is a logrus level name: trace, debug, info, warn, error.
	Level string
	// File enables a rotated log file next to stderr output. Empty disables it.
	File string
	// MaxSizeMB is the size a log file reaches before it is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// NoColors disables terminal colors.
	NoColors bool
	// ReportCaller adds the calling file, line and function to every entry.
	ReportCaller bool
}

// NewLogger builds a logger writing to stderr and, when configured, to a rotated file.
//
// Arguments:
//   - opts: The logger options.
//
// Returns:
//   - *logrus.Logger: The configured logger.
//   - error: An error if the level name is invalid.
func NewLogger(opts LoggerOptions) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrap(err, "parse log level")
		}
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetReportCaller(opts.ReportCaller)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		CallerFirst:     true,
		FieldsOrder:     []string{"run_id", "image", "frame"},
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})

	writers := []io.Writer{os.Stderr}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    maxSize,
			MaxAge:     7,
			MaxBackups: maxBackups,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}
