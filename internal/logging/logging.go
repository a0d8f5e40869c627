package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New
type Options struct {
	Dir    string // daily log files go here; empty disables file output
	Level  string // debug, info, warn, error
	Format string // console or json, for stdout
	Stdout io.Writer
	Now    func() time.Time
}

// New builds the process logger: stdout plus a daily file under Dir. A file
// that cannot be opened is reported on stdout and skipped. The returned close
// function flushes and closes the file.
func New(opts Options) (*zap.Logger, func()) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	stdout := zapcore.NewCore(stdoutEncoder(opts.Format), zapcore.AddSync(opts.Stdout), level)
	cores := []zapcore.Core{stdout}

	var file *DailyFile
	var fileErr error
	if opts.Dir != "" {
		file, fileErr = OpenDaily(opts.Dir, opts.Now)
		if fileErr == nil {
			cores = append(cores, zapcore.NewCore(fileEncoder(), file, level))
		}
	}

	log := zap.New(SkipBlank(zapcore.NewTee(cores...)), zap.AddCaller())
	if fileErr != nil {
		log.Warn("log file disabled", zap.String("dir", opts.Dir), zap.Error(fileErr))
	}
	closeFn := func() {
		_ = log.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return log, closeFn
}

func stdoutEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// SkipBlank wraps a core so entries with an empty or whitespace-only message
// are dropped
func SkipBlank(c zapcore.Core) zapcore.Core {
	return skipBlank{c}
}

type skipBlank struct {
	zapcore.Core
}

func (s skipBlank) With(fields []zapcore.Field) zapcore.Core {
	return skipBlank{s.Core.With(fields)}
}

func (s skipBlank) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if strings.TrimSpace(e.Message) == "" {
		return ce
	}
	return s.Core.Check(e, ce)
}
