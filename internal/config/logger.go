package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// InitLogger builds the application logger. A non-empty levelOverride (the
// --log-level flag) replaces the configured level. Logs go to stderr unless
// an output file is configured.
func InitLogger(lc LoggingConfig, levelOverride string) (*zap.Logger, error) {
	levelName := lc.Level
	if levelOverride != "" {
		levelName = levelOverride
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", levelName)
	}

	encoder, err := newEncoder(lc.Format)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(lc.OutputFile)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.ErrorOutput(sink), zap.AddCaller()}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "", LogFormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg), nil
	case LogFormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	}
	return nil, eris.Errorf("invalid log format %q, expected %s or %s", format, LogFormatJSON, LogFormatConsole)
}

// openSink returns stderr, or the named file opened for append with its
// parent directory created.
func openSink(path string) (zapcore.WriteSyncer, error) {
	if path == "" {
		return zapcore.Lock(os.Stderr), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "create log directory for %s", path)
	}
	sink, _, err := zap.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open log file %s", path)
	}
	return sink, nil
}
