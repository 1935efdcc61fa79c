// Package navlog wires zap to a rotating lumberjack sink for every
// long-running component (scheduler workers, the navd server), and adds a
// small first-occurrence registry so a noisy per-tile warning (a degenerate
// triangle, a starved search) logs once instead of flooding the sink.
package navlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating file sink. A zero value logs to stderr
// only (no file rotation), which is what tests and short-lived CLI
// subcommands use.
type Options struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      zapcore.Level
}

// New builds a zap.Logger writing structured JSON to both stderr and,
// when opts.FilePath is set, a lumberjack-rotated file.
func New(opts Options) (*zap.Logger, error) {
	level := opts.Level
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 64),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// OnceRegistry logs each distinct key's first occurrence only; used for
// per-tile-id or per-reason warnings that would otherwise repeat every
// frame (e.g. a search exhausting its node pool, a degenerate triangle).
type OnceRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
	log  *zap.Logger
}

// NewOnceRegistry wraps logger with first-occurrence deduplication.
func NewOnceRegistry(logger *zap.Logger) *OnceRegistry {
	return &OnceRegistry{seen: make(map[string]struct{}), log: logger}
}

// WarnOnce logs msg at Warn level the first time key is seen, and is a
// no-op on every subsequent call with the same key.
func (r *OnceRegistry) WarnOnce(key, msg string, fields ...zap.Field) {
	r.mu.Lock()
	_, already := r.seen[key]
	if !already {
		r.seen[key] = struct{}{}
	}
	r.mu.Unlock()
	if !already {
		r.log.Warn(msg, append(fields, zap.String("key", key))...)
	}
}
