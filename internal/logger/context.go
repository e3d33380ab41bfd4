package logger

import (
	"context"
	"time"
)

type contextKey struct{}

// LogContext holds request-scoped fields that the *Ctx functions prepend to
// every record.
type LogContext struct {
	TraceID   string
	SpanID    string
	Operation string // ACL_GET, STAT, CONNECT, ...
	Share     string
	Volume    string
	MountPath string
	StartTime time.Time
}

// NewLogContext returns a LogContext for an operation on a share.
func NewLogContext(share, operation string) *LogContext {
	return &LogContext{
		Share:     share,
		Operation: operation,
		StartTime: time.Now(),
	}
}

// WithContext returns a copy of ctx carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

// Clone returns a shallow copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithVolume returns a copy with the volume key set.
func (lc *LogContext) WithVolume(volume, mountPath string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Volume = volume
		c.MountPath = mountPath
	}
	return c
}

// WithTrace returns a copy with trace identifiers set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns the milliseconds since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}

func withContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 12+len(args))
	for _, kv := range [...]struct{ k, v string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyOperation, lc.Operation},
		{KeyShare, lc.Share},
		{KeyVolume, lc.Volume},
		{KeyMountPath, lc.MountPath},
	} {
		if kv.v != "" {
			out = append(out, kv.k, kv.v)
		}
	}
	return append(out, args...)
}
