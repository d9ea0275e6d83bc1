package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "stadium-ticketing.log"

// InitLogger tees JSON (console when Debug) to stdout and a rotated file in
// app.LogPath. Every entry carries the app name.
func InitLogger(app AppConfig) (*zap.Logger, error) {
	if app.LogPath != "" {
		if err := os.MkdirAll(app.LogPath, 0o755); err != nil {
			return nil, err
		}
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	encCfg := zap.NewProductionEncoderConfig()
	if app.Debug {
		level.SetLevel(zap.DebugLevel)
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	if app.Debug {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(app.LogPath, logFileName),
		MaxSize:    10, // MB
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(rotated), level),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if app.Name != "" {
		opts = append(opts, zap.Fields(zap.String("app", app.Name)))
	}
	return zap.New(core, opts...), nil
}
