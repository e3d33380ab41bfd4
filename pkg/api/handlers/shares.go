package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
)

// ShareHandler exposes connected shares and the per-path operations on them.
type ShareHandler struct {
	registry *registry.Registry
	shares   *vfs.Shares
}

// NewShareHandler creates a share handler.
func NewShareHandler(reg *registry.Registry, shares *vfs.Shares) *ShareHandler {
	return &ShareHandler{registry: reg, shares: shares}
}

// ShareInfo describes one connected share.
type ShareInfo struct {
	Name                string `json:"name"`
	Volume              string `json:"volume"`
	Path                string `json:"path"`
	Backend             string `json:"backend"`
	Refs                int    `json:"refs"`
	Capabilities        string `json:"capabilities,omitempty"`
	TimestampResolution string `json:"timestamp_resolution,omitempty"`
}

// ACLResponse carries an ACL in both short text form and as entries.
type ACLResponse struct {
	Path    string      `json:"path"`
	Type    string      `json:"type"`
	Text    string      `json:"text"`
	Entries []acl.Entry `json:"entries"`
}

// SetACLRequest is the body of PUT .../acl. Text uses the short form
// accepted by setfacl, e.g. "user::rwx,group::r-x,other::r--".
type SetACLRequest struct {
	Text string `json:"text"`
}

// DiskFreeResponse is the body of GET .../df.
type DiskFreeResponse struct {
	BlockSize   uint64 `json:"block_size"`
	BlocksAvail uint64 `json:"blocks_avail"`
	TotalBlocks uint64 `json:"total_blocks"`
}

func (h *ShareHandler) info(s *vfs.Share) ShareInfo {
	key := s.Key()
	info := ShareInfo{
		Name:    s.Name(),
		Volume:  key.Volume,
		Path:    key.MountPath,
		Backend: s.Config().ConnectConfig().Backend,
		Refs:    h.registry.Refs(key.Volume, key.MountPath),
	}
	if caps, res, err := s.FSCapabilities(); err == nil {
		info.Capabilities = caps.String()
		info.TimestampResolution = res.String()
	}
	return info
}

// share resolves the {name} URL parameter. On failure the error reply is
// written and nil returned.
func (h *ShareHandler) share(w http.ResponseWriter, r *http.Request) *vfs.Share {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		BadRequest(w, "Invalid share name")
		return nil
	}
	s, err := h.shares.Get(name)
	if err != nil {
		writeError(w, err)
		return nil
	}
	return s
}

// pathParam returns the ?path= query parameter, defaulting to the share root.
func pathParam(r *http.Request) string {
	if p := r.URL.Query().Get("path"); p != "" {
		return p
	}
	return "/"
}

// List handles GET /api/v1/shares.
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	shares := h.shares.List()
	out := make([]ShareInfo, 0, len(shares))
	for _, s := range shares {
		out = append(out, h.info(s))
	}
	OK(w, out)
}

// Get handles GET /api/v1/shares/{name}.
func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	OK(w, h.info(s))
}

// Stat handles GET /api/v1/shares/{name}/stat?path=&nofollow=.
func (h *ShareHandler) Stat(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	nofollow, _ := strconv.ParseBool(r.URL.Query().Get("nofollow"))

	stat := s.Stat
	if nofollow {
		stat = s.Lstat
	}
	st, err := stat(r.Context(), pathParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	OK(w, st)
}

// Statvfs handles GET /api/v1/shares/{name}/statvfs?path=.
func (h *ShareHandler) Statvfs(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	st, err := s.Statvfs(r.Context(), pathParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	OK(w, st)
}

// DiskFree handles GET /api/v1/shares/{name}/df?path=.
func (h *ShareHandler) DiskFree(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	bsize, avail, total, err := s.DiskFree(r.Context(), pathParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	OK(w, DiskFreeResponse{BlockSize: bsize, BlocksAvail: avail, TotalBlocks: total})
}

func aclType(w http.ResponseWriter, r *http.Request) (acl.Type, bool) {
	t, err := acl.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		BadRequest(w, err.Error())
		return 0, false
	}
	return t, true
}

// GetACL handles GET /api/v1/shares/{name}/acl?path=&type=.
func (h *ShareHandler) GetACL(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	t, ok := aclType(w, r)
	if !ok {
		return
	}
	path := pathParam(r)
	a, err := s.GetACL(r.Context(), path, t)
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		a = acl.ACL{}
	}
	OK(w, ACLResponse{Path: path, Type: t.String(), Text: a.String(), Entries: a})
}

// SetACL handles PUT /api/v1/shares/{name}/acl?path=&type=.
func (h *ShareHandler) SetACL(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	t, ok := aclType(w, r)
	if !ok {
		return
	}
	var req SetACLRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	a, err := acl.Parse(req.Text)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if err := s.SetACL(r.Context(), pathParam(r), t, a); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteACL handles DELETE /api/v1/shares/{name}/acl?path=. Only default
// ACLs can be removed; the access ACL always exists.
func (h *ShareHandler) DeleteACL(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	if t := r.URL.Query().Get("type"); t != "" && t != acl.TypeDefault.String() {
		BadRequest(w, fmt.Sprintf("cannot remove the %s ACL", t))
		return
	}
	if err := s.DeleteDefaultACL(r.Context(), pathParam(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListXattrs handles GET /api/v1/shares/{name}/xattrs?path=.
func (h *ShareHandler) ListXattrs(w http.ResponseWriter, r *http.Request) {
	s := h.share(w, r)
	if s == nil {
		return
	}
	names, err := s.ListXattr(r.Context(), pathParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	OK(w, names)
}
