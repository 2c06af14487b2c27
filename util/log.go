// Package util builds the logger shared by every component.
package util

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls NewLogger.
type LogConfig struct {
	// Level is the console level ("debug", "info", "warn",
	// "error").  The file always gets info and above unless Level
	// is debug.
	Level string `yaml:"level"`

	// File, if not empty, is the rotated JSON log file.
	File string `yaml:"file"`

	// MaxSize is in megabytes.
	MaxSize    int `yaml:"max_size"`
	MaxBackups int `yaml:"max_backups"`

	// MaxAge is in days.
	MaxAge int `yaml:"max_age"`
}

// NewLogger makes a logger that writes human-readable lines to
// stderr and, if c.File is set, JSON lines to a rotated file.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level := zap.InfoLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, err
		}
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)

	if c.File == "" {
		return zap.New(consoleCore, zap.AddCaller()), nil
	}

	if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    orDefault(c.MaxSize, 10),
		MaxBackups: orDefault(c.MaxBackups, 5),
		MaxAge:     orDefault(c.MaxAge, 30),
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileLevel := zap.InfoLevel
	if level < fileLevel {
		fileLevel = level
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		fileLevel,
	)

	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller()), nil
}

func orDefault(n, d int) int {
	if n <= 0 {
		return d
	}
	return n
}
