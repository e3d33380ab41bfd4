package vfs

import (
	"context"

	"github.com/marmos91/volbridge/internal/telemetry"
)

// GetXattr returns the raw value of an extended attribute.
func (s *Share) GetXattr(ctx context.Context, path, name string) (_ []byte, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "getxattr", path, telemetry.Xattr(name))
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return nil, err
	}
	b, err := v.GetXattr(ctx, path, name)
	if err == nil {
		span.SetAttributes(telemetry.Size(len(b)))
	}
	return b, err
}

// SetXattr creates or replaces an extended attribute.
func (s *Share) SetXattr(ctx context.Context, path, name string, value []byte) (err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "setxattr", path,
		telemetry.Xattr(name), telemetry.Size(len(value)))
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return err
	}
	return v.SetXattr(ctx, path, name, value)
}

// RemoveXattr deletes an extended attribute.
func (s *Share) RemoveXattr(ctx context.Context, path, name string) (err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "removexattr", path, telemetry.Xattr(name))
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return err
	}
	return v.RemoveXattr(ctx, path, name)
}

// ListXattr returns the extended attribute names on path.
func (s *Share) ListXattr(ctx context.Context, path string) (_ []string, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "listxattr", path)
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return nil, err
	}
	return v.ListXattr(ctx, path)
}
