package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/api/handlers"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/vfs"
)

func sharePath(name, suffix string) string {
	return "/api/v1/shares/" + url.PathEscape(name) + suffix
}

func pathQuery(p string) url.Values {
	q := url.Values{}
	if p != "" {
		q.Set("path", p)
	}
	return q
}

// ListHandles returns the server's live connections.
func (c *Client) ListHandles(ctx context.Context) ([]registry.Entry, error) {
	var out []registry.Entry
	err := c.get(ctx, "/api/v1/handles", nil, &out)
	return out, err
}

// ListShares returns the connected shares.
func (c *Client) ListShares(ctx context.Context) ([]handlers.ShareInfo, error) {
	var out []handlers.ShareInfo
	err := c.get(ctx, "/api/v1/shares", nil, &out)
	return out, err
}

// GetShare returns one share.
func (c *Client) GetShare(ctx context.Context, name string) (handlers.ShareInfo, error) {
	var out handlers.ShareInfo
	err := c.get(ctx, sharePath(name, ""), nil, &out)
	return out, err
}

// Stat returns the attributes of path. With nofollow a trailing symlink is
// not resolved.
func (c *Client) Stat(ctx context.Context, share, path string, nofollow bool) (stat.Ex, error) {
	q := pathQuery(path)
	if nofollow {
		q.Set("nofollow", strconv.FormatBool(true))
	}
	var out stat.Ex
	err := c.get(ctx, sharePath(share, "/stat"), q, &out)
	return out, err
}

// Statvfs returns file system statistics for the volume holding path.
func (c *Client) Statvfs(ctx context.Context, share, path string) (vfs.Statvfs, error) {
	var out vfs.Statvfs
	err := c.get(ctx, sharePath(share, "/statvfs"), pathQuery(path), &out)
	return out, err
}

// DiskFree returns the block summary of the volume holding path.
func (c *Client) DiskFree(ctx context.Context, share, path string) (handlers.DiskFreeResponse, error) {
	var out handlers.DiskFreeResponse
	err := c.get(ctx, sharePath(share, "/df"), pathQuery(path), &out)
	return out, err
}

// ListXattrs returns the extended attribute names of path.
func (c *Client) ListXattrs(ctx context.Context, share, path string) ([]string, error) {
	var out []string
	err := c.get(ctx, sharePath(share, "/xattrs"), pathQuery(path), &out)
	return out, err
}

func aclQuery(path string, t acl.Type) url.Values {
	q := pathQuery(path)
	q.Set("type", t.String())
	return q
}

// GetACL returns the ACL of type t on path.
func (c *Client) GetACL(ctx context.Context, share, path string, t acl.Type) (handlers.ACLResponse, error) {
	var out handlers.ACLResponse
	err := c.get(ctx, sharePath(share, "/acl"), aclQuery(path, t), &out)
	return out, err
}

// SetACL replaces the ACL of type t on path.
func (c *Client) SetACL(ctx context.Context, share, path string, t acl.Type, a acl.ACL) error {
	return c.put(ctx, sharePath(share, "/acl"), aclQuery(path, t), handlers.SetACLRequest{Text: a.String()})
}

// DeleteDefaultACL removes the default ACL of the directory at path.
func (c *Client) DeleteDefaultACL(ctx context.Context, share, path string) error {
	return c.delete(ctx, sharePath(share, "/acl"), aclQuery(path, acl.TypeDefault))
}
