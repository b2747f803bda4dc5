// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package system holds process level helpers shared by the repomake commands.
package system

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCLILogger builds the console logger used by the command line. Only
// warnings and errors are shown unless verbose is set. Output goes to w so
// that stdout stays free for command results.
func NewCLILogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	if !verbose {
		// warnings read like CLI messages, not log records
		encCfg.TimeKey = ""
		encCfg.CallerKey = ""
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(w)))}
	if verbose {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}

// InvocationFields returns the key/value pairs identifying one CLI run.
func InvocationFields(id, command string) []interface{} {
	if command == "" {
		return []interface{}{"invocation", id}
	}
	return []interface{}{"invocation", id, "command", command}
}
