// Package s3 exposes an S3 bucket as a volume.
//
// Objects map to regular files. Directories are implied by key prefixes and
// may carry a zero-length "<dir>/.keep" marker holding their metadata.
// Ownership, mode and extended attributes live in user metadata:
//
//	mode      octal permission and type bits
//	uid, gid  decimal owner ids
//	ctime     unix seconds of the last metadata change
//	xattr-<hex(name)>  base64 attribute value
//
// Metadata is rewritten with CopyObject and MetadataDirective REPLACE, so
// object bodies are never re-uploaded. S3 caps user metadata at 2 KiB per
// object, which bounds the attributes a path can hold.
package s3

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
)

// API is the subset of the S3 client the volume uses.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

const (
	dirMarker     = ".keep"
	xattrPrefix   = "xattr-"
	maxUserMeta   = 2048
	blockSize     = 4096
	defaultMode   = 0o644
	defaultDirMod = 0o755
)

// Volume is an S3 bucket volume.
type Volume struct {
	client   API
	bucket   string
	prefix   string
	capacity uint64
	closed   atomic.Bool

	log    *slog.Logger
	logOut io.Closer
}

// Connect opens an S3 volume. Options decode into Config.
func Connect(ctx context.Context, cc volume.ConnectConfig) (volume.Volume, error) {
	var cfg Config
	if err := volume.DecodeOptions(cc.Options, &cfg); err != nil {
		return nil, fmt.Errorf("invalid s3 volume options: %w", err)
	}
	if cfg.Bucket == "" {
		cfg.Bucket = cc.Volume
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log, closer, err := volume.OpenLog(cc)
	if err != nil {
		return nil, err
	}
	v := New(client, cfg, log)
	v.logOut = closer

	if !cfg.SkipVerify {
		if err := v.Healthcheck(ctx); err != nil {
			_ = v.Close()
			return nil, fmt.Errorf("bucket %q unreachable: %w", cfg.Bucket, err)
		}
	}
	log.Info("s3 volume ready", "bucket", cfg.Bucket, "key", cfg.KeyPrefix)
	return v, nil
}

// New wraps an existing client.
func New(client API, cfg Config, log *slog.Logger) *Volume {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = defaultCapacity
	}
	return &Volume{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.KeyPrefix,
		capacity: cfg.Capacity.Uint64(),
		log:      log,
	}
}

// object is what a path resolves to.
type object struct {
	key      string // object holding the metadata
	dir      bool
	exists   bool // key exists; false for implied directories
	meta     map[string]string
	ctype    *string
	size     int64
	modified time.Time
}

func (v *Volume) fileKey(p string) string {
	return v.prefix + strings.TrimPrefix(p, "/")
}

func (v *Volume) dirPrefix(p string) string {
	if p == "/" {
		return v.prefix
	}
	return v.fileKey(p) + "/"
}

func (v *Volume) lookup(ctx context.Context, p string) (object, error) {
	if v.closed.Load() {
		return object{}, volume.ErrClosed
	}
	p = volume.CleanPath(p)

	if p != "/" {
		key := v.fileKey(p)
		head, err := v.head(ctx, key)
		if err == nil {
			return object{
				key:      key,
				exists:   true,
				meta:     head.Metadata,
				ctype:    head.ContentType,
				size:     aws.ToInt64(head.ContentLength),
				modified: aws.ToTime(head.LastModified),
			}, nil
		}
		if !isNotFound(err) {
			return object{}, fmt.Errorf("s3 head object: %w", err)
		}
	}

	marker := v.dirPrefix(p) + dirMarker
	head, err := v.head(ctx, marker)
	if err == nil {
		return object{
			key:      marker,
			dir:      true,
			exists:   true,
			meta:     head.Metadata,
			ctype:    head.ContentType,
			modified: aws.ToTime(head.LastModified),
		}, nil
	}
	if !isNotFound(err) {
		return object{}, fmt.Errorf("s3 head object: %w", err)
	}

	implied := object{key: marker, dir: true, meta: map[string]string{}}
	if p == "/" {
		return implied, nil
	}
	out, err := v.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(v.bucket),
		Prefix:  aws.String(v.dirPrefix(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return object{}, fmt.Errorf("s3 list objects: %w", err)
	}
	if len(out.Contents) == 0 {
		return object{}, fmt.Errorf("%s: %w", p, volume.ErrNotFound)
	}
	return implied, nil
}

func (v *Volume) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	return v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
}

func (o object) native() stat.Native {
	mode := uint32(defaultMode) | stat.ModeRegular
	if o.dir {
		mode = uint32(defaultDirMod) | stat.ModeDir
	}
	if m, err := strconv.ParseUint(o.meta["mode"], 8, 32); err == nil {
		perm := uint32(m) & 0o7777
		mode = mode&stat.ModeTypeMask | perm
	}
	uid, _ := strconv.ParseUint(o.meta["uid"], 10, 32)
	gid, _ := strconv.ParseUint(o.meta["gid"], 10, 32)

	ctime := o.modified
	if sec, err := strconv.ParseInt(o.meta["ctime"], 10, 64); err == nil {
		ctime = time.Unix(sec, 0)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(o.key))

	n := stat.Native{
		Dev:     1,
		Ino:     h.Sum64(),
		Mode:    mode,
		Nlink:   1,
		UID:     uint32(uid),
		GID:     uint32(gid),
		Size:    o.size,
		Blksize: blockSize,
		Blocks:  (o.size + 511) / 512,
		Atime:   stat.Timespec{Sec: o.modified.Unix()},
		Mtime:   stat.Timespec{Sec: o.modified.Unix()},
		Ctime:   stat.Timespec{Sec: ctime.Unix()},
	}
	if o.dir {
		n.Nlink = 2
	}
	return n
}

// Stat implements volume.Volume. S3 reports whole seconds only.
func (v *Volume) Stat(ctx context.Context, p string) (stat.Native, error) {
	o, err := v.lookup(ctx, p)
	if err != nil {
		return stat.Native{}, err
	}
	return o.native(), nil
}

// Lstat implements volume.Volume. Buckets hold no symlinks.
func (v *Volume) Lstat(ctx context.Context, p string) (stat.Native, error) {
	return v.Stat(ctx, p)
}

// Statvfs implements volume.Volume.
func (v *Volume) Statvfs(ctx context.Context, p string) (volume.Statvfs, error) {
	if _, err := v.lookup(ctx, p); err != nil {
		return volume.Statvfs{}, err
	}
	blocks := v.capacity / blockSize
	h := fnv.New64a()
	_, _ = h.Write([]byte(v.bucket))
	return volume.Statvfs{
		Bsize:   blockSize,
		Frsize:  blockSize,
		Blocks:  blocks,
		Bfree:   blocks,
		Bavail:  blocks,
		Files:   blocks,
		Ffree:   blocks,
		Favail:  blocks,
		Fsid:    h.Sum64(),
		Namemax: 1024,
	}, nil
}

func xattrKey(name string) string {
	return xattrPrefix + hex.EncodeToString([]byte(name))
}

// GetXattr implements volume.Volume.
func (v *Volume) GetXattr(ctx context.Context, p, name string) ([]byte, error) {
	o, err := v.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	enc, ok := o.meta[xattrKey(name)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	val, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("corrupt xattr %s on %s: %w", name, p, err)
	}
	return val, nil
}

// ListXattr implements volume.Volume.
func (v *Volume) ListXattr(ctx context.Context, p string) ([]string, error) {
	o, err := v.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for k := range o.meta {
		hexName, ok := strings.CutPrefix(strings.ToLower(k), xattrPrefix)
		if !ok {
			continue
		}
		name, err := hex.DecodeString(hexName)
		if err != nil {
			continue
		}
		names = append(names, string(name))
	}
	slices.Sort(names)
	return names, nil
}

// SetXattr implements volume.Volume.
func (v *Volume) SetXattr(ctx context.Context, p, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("empty xattr name: %w", volume.ErrInvalidArgument)
	}
	o, err := v.lookup(ctx, p)
	if err != nil {
		return err
	}
	meta := maps.Clone(o.meta)
	if meta == nil {
		meta = map[string]string{}
	}
	meta[xattrKey(name)] = base64.StdEncoding.EncodeToString(value)
	if err := v.writeMeta(ctx, o, meta); err != nil {
		return err
	}
	v.log.Debug("xattr set", "path", p, "xattr", name, "size", len(value))
	return nil
}

// RemoveXattr implements volume.Volume.
func (v *Volume) RemoveXattr(ctx context.Context, p, name string) error {
	o, err := v.lookup(ctx, p)
	if err != nil {
		return err
	}
	if _, ok := o.meta[xattrKey(name)]; !ok {
		return fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	meta := maps.Clone(o.meta)
	delete(meta, xattrKey(name))
	return v.writeMeta(ctx, o, meta)
}

func metaSize(meta map[string]string) int {
	n := 0
	for k, val := range meta {
		n += len(k) + len(val)
	}
	return n
}

func (v *Volume) writeMeta(ctx context.Context, o object, meta map[string]string) error {
	meta["ctime"] = strconv.FormatInt(time.Now().Unix(), 10)
	if metaSize(meta) > maxUserMeta {
		return fmt.Errorf("object metadata exceeds %d bytes: %w", maxUserMeta, volume.ErrInvalidArgument)
	}

	if !o.exists {
		_, err := v.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:   aws.String(v.bucket),
			Key:      aws.String(o.key),
			Body:     strings.NewReader(""),
			Metadata: meta,
		})
		if err != nil {
			return fmt.Errorf("s3 put object: %w", err)
		}
		return nil
	}

	source := (&url.URL{Path: v.bucket + "/" + o.key}).EscapedPath()
	_, err := v.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(v.bucket),
		Key:               aws.String(o.key),
		CopySource:        aws.String(source),
		ContentType:       o.ctype,
		Metadata:          meta,
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		return fmt.Errorf("s3 copy object: %w", err)
	}
	return nil
}

// Capabilities implements volume.CapabilityReporter.
func (v *Volume) Capabilities() volume.Capabilities {
	return volume.Capabilities{}
}

// Healthcheck implements volume.HealthChecker.
func (v *Volume) Healthcheck(ctx context.Context) error {
	if v.closed.Load() {
		return volume.ErrClosed
	}
	_, err := v.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(v.bucket)})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("bucket %s: %w", v.bucket, volume.ErrNotFound)
		}
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}

// Close implements volume.Volume.
func (v *Volume) Close() error {
	if !v.closed.CompareAndSwap(false, true) {
		return nil
	}
	if v.logOut != nil {
		return v.logOut.Close()
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
