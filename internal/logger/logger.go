package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

type Options struct {
	File  string
	Level string
	// Stdout mirrors every line to standard output.
	Stdout bool
}

// Setup initializes Logrus on a rotating file and returns the writer so the
// HTTP access log can share it.
func Setup(opts Options) io.Writer {
	filename := opts.File
	if filename == "" {
		filename = "./logs/app.log"
	}

	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}

	var out io.Writer = rotator
	if opts.Stdout {
		out = io.MultiWriter(rotator, os.Stdout)
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(ParseLevel(opts.Level))
	return out
}

// ParseLevel falls back to Info on empty or unknown input.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
