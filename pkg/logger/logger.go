package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseLogger *zap.Logger
	atomicLVL  zap.AtomicLevel
)

func init() {
	atomicLVL = zap.NewAtomicLevelAt(parseLevel(getEnv("CHAT_LOG_LEVEL", "info")))
	baseLogger = build(getEnv("CHAT_LOG_ENCODING", "console"))
}

func build(encoding string) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg := zap.Config{
		Level:            atomicLVL,
		Development:      false,
		Encoding:         parseEncoding(encoding),
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func L() *zap.Logger { return baseLogger }

// S 是 L().Sugar() 的简写
func S() *zap.SugaredLogger { return baseLogger.Sugar() }

func SetLevel(level string) { atomicLVL.SetLevel(parseLevel(level)) }

// SetEncoding 切换输出格式（json|console），级别保持不变
func SetEncoding(encoding string) {
	old := baseLogger
	baseLogger = build(encoding)
	_ = old.Sync()
}

// Replace 替换全局 logger，返回恢复函数，测试中用于捕获日志
func Replace(l *zap.Logger) (restore func()) {
	prev := baseLogger
	baseLogger = l
	return func() { baseLogger = prev }
}

func Sync() { _ = baseLogger.Sync() }

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func parseEncoding(s string) string {
	if strings.ToLower(strings.TrimSpace(s)) == "json" {
		return "json"
	}
	return "console"
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
