// Package logging builds the zap loggers used by docdbctl.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logger at the named level. With an empty path, entries go to
// stderr in console form, keeping stdout clean for command output. With a
// path, entries go to the file as JSON, size-rotated so long-running
// operator hosts do not fill their disks.
func New(level, path string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", level, err)
	}

	var core zapcore.Core
	if path == "" {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		core = zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	} else {
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
		core = zapcore.NewCore(enc, sink, lvl)
	}

	return zap.New(core), nil
}
