package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/volbridge/internal/bytesize"
)

// Config holds S3 volume options.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket"`

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region"`

	// Endpoint is the S3 endpoint URL, for S3-compatible services.
	Endpoint string `mapstructure:"endpoint"`

	// KeyPrefix is prepended to every object key. Should end with "/" if
	// non-empty.
	KeyPrefix string `mapstructure:"key_prefix"`

	// ForcePathStyle forces path-style addressing (Localstack, MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style"`

	// Static credentials. When empty the SDK default chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// Capacity is the size reported by Statvfs, in bytes. Buckets have no
	// fixed size.
	Capacity bytesize.ByteSize `mapstructure:"capacity"`

	// SkipVerify skips the HeadBucket probe at connect time.
	SkipVerify bool `mapstructure:"skip_verify"`
}

const defaultCapacity = 1 << 50

// NewClient builds an S3 client from cfg.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}
