// Package logger 提供基于 zap 的日志器构建
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string
	// File 日志文件路径，为空时只输出到 stderr
	File string
	// Production 是否启用 JSON 输出
	Production bool
}

// NewLogger 根据配置创建 zap 日志器
// 同时输出到控制台与日志文件（若配置了文件路径）
func NewLogger(c Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if c.Level != "" {
		parsed, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0754); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}

		var fileEncoder zapcore.Encoder
		if c.Production {
			fileEncoderConfig := zap.NewProductionEncoderConfig()
			fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			fileEncoder = zapcore.NewJSONEncoder(fileEncoderConfig)
		} else {
			fileEncoderConfig := zap.NewDevelopmentEncoderConfig()
			fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			fileEncoder = zapcore.NewConsoleEncoder(fileEncoderConfig)
		}

		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.Lock(f), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
