// Package logger 全局结构化日志
package logger

import (
	"context"
	"sync"

	"github.com/pu-ac-cn/srm-backend/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	log *zap.Logger
	mu  sync.RWMutex
)

func init() {
	l, err := build(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		panic(err)
	}
	log = l
}

// Init 按配置重建全局日志实例
func Init(cfg *config.LogConfig) error {
	l, err := build(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	log = l
	mu.Unlock()

	zap.ReplaceGlobals(l)
	return nil
}

// L 获取全局日志实例
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync 刷新缓冲日志
func Sync() {
	_ = L().Sync()
}

// WithContext 将日志实例存入 context
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 从 context 获取日志实例，不存在时返回全局实例
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return L()
}

func build(cfg *config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.MessageKey = "msg"
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	return zc.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
