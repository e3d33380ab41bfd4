package logger

import "log/slog"

// Field keys shared by all log statements.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyOperation = "operation"
	KeyShare     = "share"
	KeyVolume    = "volume"
	KeyMountPath = "mount_path"
	KeyServer    = "volfile_server"
	KeyBackend   = "backend"
	KeyHandle    = "handle"
	KeyRefs      = "refs"

	KeyPath    = "path"
	KeyXattr   = "xattr"
	KeyACLType = "acl_type"
	KeyEntries = "entries"
	KeySize    = "size"

	KeyBucket = "bucket"
	KeyKey    = "key"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// Err returns an error attribute, or an empty attribute for a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Volume returns the volume key attributes.
func Volume(volume, mountPath string) slog.Attr {
	return slog.Group("", slog.String(KeyVolume, volume), slog.String(KeyMountPath, mountPath))
}

// Path returns a path attribute.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// DurationMs returns a duration attribute in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
