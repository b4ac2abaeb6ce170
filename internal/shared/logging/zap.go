package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceLogFileName = "quill-service.log"

// Options configures the process-wide base logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Dir    string // when set, lines are also written to a rotating file here
}

var (
	baseMu   sync.RWMutex
	baseZap  = newZap(Options{Level: "info", Format: "console"})
	baseFile *lumberjack.Logger
)

// Configure rebuilds the base logger used by NewComponentLogger. Loggers
// created before the call keep their old sink.
func Configure(opts Options) {
	baseMu.Lock()
	defer baseMu.Unlock()
	if baseFile != nil {
		_ = baseFile.Close()
		baseFile = nil
	}
	var file *lumberjack.Logger
	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			file = &lumberjack.Logger{
				Filename:   filepath.Join(dir, serviceLogFileName),
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     14,
				Compress:   true,
			}
		}
	}
	baseFile = file
	baseZap = newZapWithFile(opts, file)
}

// Sync flushes buffered log entries.
func Sync() {
	baseMu.RLock()
	defer baseMu.RUnlock()
	_ = baseZap.Sync()
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return &zapLogger{sugar: baseZap.Sugar().With("component", component)}
}

// FromZap adapts an existing zap logger, mostly for tests using zaptest/observer.
func FromZap(logger *zap.Logger, component string) Logger {
	if logger == nil {
		return Nop()
	}
	sugar := logger.Sugar()
	if component != "" {
		sugar = sugar.With("component", component)
	}
	return &zapLogger{sugar: sugar}
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }

// WithLogID tags every line with a structured log_id field instead of a prefix.
func (l *zapLogger) WithLogID(logID string) Logger {
	if strings.TrimSpace(logID) == "" {
		return l
	}
	return &zapLogger{sugar: l.sugar.With("log_id", logID)}
}

func newZap(opts Options) *zap.Logger {
	return newZapWithFile(opts, nil)
}

func newZapWithFile(opts Options, file *lumberjack.Logger) *zap.Logger {
	level := parseLevel(opts.Level)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(opts.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(raw string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
