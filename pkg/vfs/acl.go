package vfs

import (
	"context"
	"fmt"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/internal/telemetry"
	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/bufpool"
	"github.com/marmos91/volbridge/pkg/volume"
)

// GetACL reads and decodes the ACL of type t on path. A file without that
// ACL yields volume.ErrNoData.
func (s *Share) GetACL(ctx context.Context, path string, t acl.Type) (_ acl.ACL, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "get_acl", path, telemetry.ACLType(t.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	name, err := aclXattr(t)
	if err != nil {
		return nil, err
	}
	v, err := s.volume()
	if err != nil {
		return nil, err
	}

	b, err := v.GetXattr(ctx, path, name)
	if err != nil {
		return nil, fmt.Errorf("get %s acl of %s: %w", t, path, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("get %s acl of %s: %w", t, path, volume.ErrNoData)
	}

	a, err := acl.Decode(b)
	s.metrics.ObserveDecode(len(a), err)
	if err != nil {
		logger.WarnCtx(ctx, "Stored ACL does not decode",
			logger.KeyShare, s.name, logger.KeyPath, path,
			logger.KeyACLType, t.String(), logger.KeySize, len(b), logger.Err(err))
		return nil, codecError("decode "+name, err)
	}
	span.SetAttributes(telemetry.Entries(len(a)))
	return a, nil
}

// SetACL canonicalizes and stores a as the ACL of type t on path.
func (s *Share) SetACL(ctx context.Context, path string, t acl.Type, a acl.ACL) (err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "set_acl", path,
		telemetry.ACLType(t.String()), telemetry.Entries(len(a)))
	defer func() { telemetry.EndSpan(span, err) }()

	name, err := aclXattr(t)
	if err != nil {
		return err
	}
	v, err := s.volume()
	if err != nil {
		return err
	}

	buf := bufpool.Get(a.EncodedSize())
	defer bufpool.Put(buf)
	n, err := acl.EncodeTo(buf, a)
	s.metrics.ObserveEncode(len(a), err)
	if err != nil {
		return codecError("encode "+name, err)
	}

	if err := v.SetXattr(ctx, path, name, buf[:n]); err != nil {
		return fmt.Errorf("set %s acl of %s: %w", t, path, err)
	}
	logger.DebugCtx(ctx, "ACL stored",
		logger.KeyShare, s.name, logger.KeyPath, path,
		logger.KeyACLType, t.String(), logger.KeyEntries, len(a))
	return nil
}

// DeleteDefaultACL removes the default ACL of the directory at path.
func (s *Share) DeleteDefaultACL(ctx context.Context, path string) (err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "delete_default_acl", path)
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return err
	}
	if err := v.RemoveXattr(ctx, path, acl.XattrDefault); err != nil {
		return fmt.Errorf("delete default acl of %s: %w", path, err)
	}
	return nil
}

func aclXattr(t acl.Type) (string, error) {
	name, err := t.XattrName()
	if err != nil {
		return "", fmt.Errorf("%w: %w", volume.ErrInvalidArgument, err)
	}
	return name, nil
}
