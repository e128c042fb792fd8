// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

// LoggerInterface is the minimal logging surface a Session uses. The
// stdlib *log.Logger satisfies it.
type LoggerInterface interface {
	Print(v ...any)
	Printf(format string, v ...any)
}

// Logger wraps a LoggerInterface and no-ops when none is set, so
// sessions log nothing by default without nil checks at call sites.
type Logger struct {
	logger LoggerInterface
}

// NewLogger returns a Logger that forwards to l.
func NewLogger(l LoggerInterface) Logger {
	return Logger{logger: l}
}

func (l Logger) Print(v ...any) {
	if l.logger != nil {
		l.logger.Print(v...)
	}
}

func (l Logger) Printf(format string, v ...any) {
	if l.logger != nil {
		l.logger.Printf(format, v...)
	}
}
