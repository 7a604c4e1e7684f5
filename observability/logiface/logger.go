// Package logiface adapts github.com/joeycumines/logiface (backed by the
// zero-allocation github.com/joeycumines/stumpy encoder) to the core.Logger
// interface, as an alternative to core.DefaultLogger's stdlib-log backend.
package logiface

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/Swind/go-partr-scheduler/core"
)

// Logger implements core.Logger on top of a structured logiface pipeline.
type Logger struct {
	l *logiface.Logger[*stumpy.Event]
}

var _ core.Logger = (*Logger)(nil)

// New builds a Logger writing newline-delimited JSON to stumpy's default
// writer (stderr). opts are applied after the default stumpy wiring, so a
// caller can override the writer with stumpy.WithStumpy(stumpy.WithWriter(w)).
func New(opts ...logiface.Option[*stumpy.Event]) *Logger {
	all := append([]logiface.Option[*stumpy.Event]{stumpy.WithStumpy()}, opts...)
	return &Logger{l: stumpy.L.New(all...)}
}

// NewWithWriter is New with the stumpy writer set to w, for callers that
// just want to redirect output (tests, log files) without composing the
// underlying stumpy options themselves.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{l: stumpy.L.New(stumpy.WithStumpy(stumpy.WithWriter(w)))}
}

func (l *Logger) Debug(msg string, fields ...core.Field) { l.log(l.l.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...core.Field)  { l.log(l.l.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...core.Field)  { l.log(l.l.Warning(), msg, fields) }
func (l *Logger) Error(msg string, fields ...core.Field) { l.log(l.l.Err(), msg, fields) }

func (l *Logger) log(b *logiface.Builder[*stumpy.Event], msg string, fields []core.Field) {
	for _, f := range fields {
		b = b.Any(f.Key, f.Value)
	}
	b.Log(msg)
}
