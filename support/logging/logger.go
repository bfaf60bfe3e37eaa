// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package logging defines the logger contract used throughout the codec.
package logging

import (
	"go.uber.org/zap"
)

// L accepts logging data.
//
// L is shaped after zap's SugaredLogger, which satisfies it directly. Any
// leveled logger with the same method set can be used instead.
type L interface {
	Error(args ...interface{})
	Warn(args ...interface{})
	Info(args ...interface{})
	Debug(args ...interface{})

	Errorf(fmt string, args ...interface{})
	Warnf(fmt string, args ...interface{})
	Infof(fmt string, args ...interface{})
	Debugf(fmt string, args ...interface{})
}

var _ L = (*zap.SugaredLogger)(nil)

// Nop is a L instance that discards everything.
var Nop L = nopLogger{}

// Must ensures that a valid L is available. If l is not nil, it will be
// returned; otherwise, Must will return Nop.
func Must(l L) L {
	if l != nil {
		return l
	}
	return Nop
}

// Zap adapts a zap.Logger into an L. A nil logger yields Nop.
func Zap(l *zap.Logger) L {
	if l == nil {
		return Nop
	}
	return l.Sugar()
}

type nopLogger struct{}

func (nopLogger) Error(args ...interface{}) {}
func (nopLogger) Warn(args ...interface{})  {}
func (nopLogger) Info(args ...interface{})  {}
func (nopLogger) Debug(args ...interface{}) {}

func (nopLogger) Errorf(fmt string, args ...interface{}) {}
func (nopLogger) Warnf(fmt string, args ...interface{})  {}
func (nopLogger) Infof(fmt string, args ...interface{})  {}
func (nopLogger) Debugf(fmt string, args ...interface{}) {}
