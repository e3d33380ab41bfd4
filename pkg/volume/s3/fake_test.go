package s3

import (
	"context"
	"io"
	"maps"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	size     int64
	meta     map[string]string
	ctype    *string
	modified time.Time
}

// fakeS3 is an in-memory API covering the calls the volume makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]*fakeObject
	copies  int
	puts    int
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string]*fakeObject{}}
}

func (f *fakeS3) add(key string, size int64, meta map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := map[string]string{}
	for k, v := range meta {
		m[strings.ToLower(k)] = v
	}
	f.objects[key] = &fakeObject{size: size, meta: m, ctype: aws.String("text/plain"), modified: time.Unix(1700000000, 0)}
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(o.size),
		ContentType:   o.ctype,
		LastModified:  aws.Time(o.modified),
		Metadata:      maps.Clone(o.meta),
	}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
			if int32(len(out.Contents)) >= aws.ToInt32(in.MaxKeys) {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.puts++
	f.mu.Unlock()
	f.add(aws.ToString(in.Key), int64(len(body)), in.Metadata)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	src, err := url.PathUnescape(aws.ToString(in.CopySource))
	if err != nil {
		return nil, err
	}
	srcKey, ok := strings.CutPrefix(src, f.bucket+"/")
	if !ok {
		return nil, &types.NoSuchBucket{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[srcKey]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	dst := *o
	if in.MetadataDirective == types.MetadataDirectiveReplace {
		dst.meta = maps.Clone(in.Metadata)
		dst.ctype = in.ContentType
	}
	f.objects[aws.ToString(in.Key)] = &dst
	f.copies++
	return &s3.CopyObjectOutput{}, nil
}
