// Copyright 2025 UPSM Networking Lab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides leveled, structured logging on top of zap. Log
// entries take a message and a variadic list of key/value pairs.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upsm-netlab/flowgate/pkg/private/serrors"
)

// Logger describes the logger interface.
type Logger interface {
	// New returns a child logger with the given key/value context attached
	// to every entry.
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

// Config configures the process-wide root logger.
type Config struct {
	// Level is one of "debug", "info" or "error". Empty defaults to info.
	Level string
	// Console switches from JSON to human-readable console encoding.
	Console bool
}

var root = newLogger(discardZap())

// Setup configures the root logger. It must be called before the first use
// of the Root logger and is not safe for concurrent use.
func Setup(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zCfg := zap.NewProductionConfig()
	zCfg.Level = zap.NewAtomicLevelAt(lvl)
	zCfg.DisableStacktrace = true
	if cfg.Console {
		zCfg.Encoding = "console"
		zCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	z, err := zCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	root = newLogger(z)
	return nil
}

// Root returns the root logger. It is guaranteed to be non-nil; before
// Setup is called it discards all entries.
func Root() Logger {
	return root
}

// Discard sets the root logger up to discard all entries. Useful in tests.
func Discard() {
	root = newLogger(discardZap())
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, serrors.New("unknown log level", "level", s)
	}
}

func discardZap() *zap.Logger {
	return zap.New(zapcore.NewNopCore())
}

type logger struct {
	z *zap.Logger
}

func newLogger(z *zap.Logger) *logger {
	return &logger{z: z}
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{z: l.z.With(fields(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...interface{}) {
	l.z.Debug(msg, fields(ctx)...)
}

func (l *logger) Info(msg string, ctx ...interface{}) {
	l.z.Info(msg, fields(ctx)...)
}

func (l *logger) Error(msg string, ctx ...interface{}) {
	l.z.Error(msg, fields(ctx)...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }

// Info logs at info level on the root logger.
func Info(msg string, ctx ...interface{}) { root.Info(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }

func fields(ctx []interface{}) []zap.Field {
	fs := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fs = append(fs, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	return fs
}
