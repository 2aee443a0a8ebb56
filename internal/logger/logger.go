// Package logger wraps logrus with request-scoped fields, mirroring the
// teacher's internal/logger helpers used throughout chat_pipline.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

// WithField returns a context carrying an additional structured field,
// composing with any fields already attached.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	entry := entryFrom(ctx).WithField(key, value)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// WithFields is the multi-field form of WithField.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	entry := entryFrom(ctx).WithFields(fields)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// CloneContext detaches a derived context's cancellation from its parent
// while preserving logger fields, for logging calls that must outlive a
// cancelled request (e.g. fire-and-forget usage-count increments, §5).
func CloneContext(ctx context.Context) context.Context {
	entry := entryFrom(ctx)
	return context.WithValue(context.Background(), ctxKey{}, entry)
}

func entryFrom(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(base)
}

func Info(ctx context.Context, msg string)                       { entryFrom(ctx).Info(msg) }
func Warn(ctx context.Context, msg string)                       { entryFrom(ctx).Warn(msg) }
func Error(ctx context.Context, msg string)                      { entryFrom(ctx).Error(msg) }
func Infof(ctx context.Context, format string, args ...interface{})  { entryFrom(ctx).Infof(format, args...) }
func Warnf(ctx context.Context, format string, args ...interface{})  { entryFrom(ctx).Warnf(format, args...) }
func Errorf(ctx context.Context, format string, args ...interface{}) { entryFrom(ctx).Errorf(format, args...) }
