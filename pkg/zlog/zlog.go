package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// InitLogger 初始化全局日志，logPath 为空时仅输出到控制台
func InitLogger(logPath string) {
	once.Do(func() {
		logger = build(logPath)
	})
}

func build(logPath string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.DebugLevel),
	}
	if logPath != "" {
		// 日志文件按大小滚动
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(logPath, "carelink.log"),
			MaxSize:    64, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCallerSkip(1), zap.AddCaller())
}

func get() *zap.Logger {
	once.Do(func() {
		logger = build("")
	})
	return logger
}

func Debug(msg string) { get().Debug(msg) }

func Info(msg string) { get().Info(msg) }

func Warn(msg string) { get().Warn(msg) }

func Error(msg string) { get().Error(msg) }

func Fatal(msg string) { get().Fatal(msg) }
