package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

var std = logrus.New()

// Init configures the process logger. JSON output is used unless env is
// "development".
func Init(env, level string) *logrus.Logger {
	return configure(std, os.Stdout, env, level)
}

func configure(l *logrus.Logger, out io.Writer, env, level string) *logrus.Logger {
	l.SetOutput(out)
	if env == "development" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

func L() *logrus.Logger {
	return std
}

// WithRequestID stores the request id for FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns an entry carrying the request id and, when a span is
// recording, its trace and span ids.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(std)
	if id := RequestID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
		})
	}
	return entry.WithContext(ctx)
}
