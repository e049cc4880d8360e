package nativelog

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogDir         = "SITE_CORE_LOG_DIR"
	FileName          = "site-core.log"
	defaultMaxSizeMB  = 20
	defaultMaxBackups = 7
	defaultLogDirPerm = 0o755
)

// Options controls the file half of the logger.
type Options struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	Dev        bool
}

// ResolveDir resolves native log directory path.
func ResolveDir(dir string) string {
	if v := strings.TrimSpace(os.Getenv(EnvLogDir)); v != "" {
		return v
	}
	if v := strings.TrimSpace(dir); v != "" {
		return v
	}
	return filepath.Join(".", "logs")
}

// NewWriter returns a size-rotated log file writer.
func NewWriter(opts Options) (*lumberjack.Logger, error) {
	dir := ResolveDir(opts.Dir)
	if err := os.MkdirAll(dir, defaultLogDirPerm); err != nil {
		return nil, err
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}, nil
}

// NewZapLogger creates a zap logger writing to stdout and the rotated log file.
func NewZapLogger(opts Options) (*zap.Logger, error) {
	writer, err := NewWriter(opts)
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Dev {
		level.SetLevel(zap.DebugLevel)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(writer), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
