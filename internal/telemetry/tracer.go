package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrVolume    = "volume.name"
	AttrMountPath = "volume.mount_path"
	AttrBackend   = "volume.backend"
	AttrServer    = "volume.server"
	AttrCacheHit  = "registry.cache_hit"
	AttrRefs      = "registry.refs"
	AttrHandle    = "registry.handle"
	AttrShare     = "fs.share"
	AttrOperation = "fs.operation"
	AttrPath      = "fs.path"
	AttrXattr     = "fs.xattr"
	AttrACLType   = "acl.type"
	AttrEntries   = "acl.entries"
	AttrSize      = "fs.size"
)

// Span names.
const (
	SpanAcquire = "registry.acquire"
	SpanConnect = "volume.connect"
)

func Volume(name string) attribute.KeyValue { return attribute.String(AttrVolume, name) }
func MountPath(p string) attribute.KeyValue { return attribute.String(AttrMountPath, p) }
func Backend(name string) attribute.KeyValue { return attribute.String(AttrBackend, name) }
func Server(addr string) attribute.KeyValue { return attribute.String(AttrServer, addr) }
func CacheHit(hit bool) attribute.KeyValue { return attribute.Bool(AttrCacheHit, hit) }
func Refs(n int) attribute.KeyValue { return attribute.Int(AttrRefs, n) }
func Handle(id string) attribute.KeyValue { return attribute.String(AttrHandle, id) }
func Share(name string) attribute.KeyValue { return attribute.String(AttrShare, name) }
func Path(p string) attribute.KeyValue { return attribute.String(AttrPath, p) }
func Xattr(name string) attribute.KeyValue { return attribute.String(AttrXattr, name) }
func ACLType(t string) attribute.KeyValue { return attribute.String(AttrACLType, t) }
func Entries(n int) attribute.KeyValue { return attribute.Int(AttrEntries, n) }
func Size(n int) attribute.KeyValue { return attribute.Int(AttrSize, n) }
func Operation(op string) attribute.KeyValue { return attribute.String(AttrOperation, op) }

// StartRegistrySpan starts a span for a handle registry call.
func StartRegistrySpan(ctx context.Context, name, volume, mountPath string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Volume(volume), MountPath(mountPath)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}

// StartShareSpan starts a span named "share.<op>" for a share operation.
func StartShareSpan(ctx context.Context, share, op, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Share(share), Operation(op), Path(path)}, attrs...)
	return StartSpan(ctx, "share."+op, trace.WithAttributes(all...))
}
