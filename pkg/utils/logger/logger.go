package logger

import (
	"os"
	"path/filepath"

	"github.com/prepressworks/pagegen/pkg/utils/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// no-op until LogInit runs, so library code can log unconditionally
var loggers = zap.NewNop()

// LogInit sets up the process-wide logger. Entries go to a log file under
// logPath and, mirrored in console format, to stderr. Falls back to
// stderr-only when the log directory is not writable (e.g. running as a
// regular desktop user).
func LogInit(logPath, logSaveName, logFileExt string) {
	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleCfg),
		zapcore.Lock(os.Stderr),
		zapcore.InfoLevel,
	)

	cores := []zapcore.Core{consoleCore}

	if err := file.IsNotExistMkDir(logPath); err == nil {
		logFile := filepath.Join(logPath, logSaveName+"."+logFileExt)
		if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			fileCfg := zap.NewProductionEncoderConfig()
			fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(fileCfg),
				zapcore.AddSync(f),
				zapcore.InfoLevel,
			))
		}
	}

	loggers = zap.New(zapcore.NewTee(cores...))
}

func Info(message string, fields ...zap.Field) {
	loggers.Info(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	loggers.Error(message, fields...)
}

func Sync() {
	_ = loggers.Sync()
}
