// Package s3 stores contents in Amazon S3 or an S3-compatible service
// through the AWS SDK.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/backend/objstore"
)

// mimeTypeKey is the user metadata key holding the content type recorded
// by the contents layer.
const mimeTypeKey = "mimetype"

// deleteBatchSize is the DeleteObjects limit.
const deleteBatchSize = 1000

// Config configures an S3 backend.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`

	// Endpoint overrides the service URL for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint"`

	// Static credentials. When empty the default AWS credential chain is
	// used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// ForcePathStyle addresses buckets as "endpoint/bucket". Required by
	// most S3-compatible stores.
	ForcePathStyle bool `mapstructure:"force_path_style"`

	// Prefix namespaces every key.
	Prefix string `mapstructure:"prefix"`

	MaxRetries      int  `mapstructure:"max_retries"`
	CopyConcurrency int  `mapstructure:"copy_concurrency"`
	ReadOnly        bool `mapstructure:"read_only"`
}

// Client implements objstore.Client with the AWS SDK.
type Client struct {
	api    *s3.Client
	bucket string
}

// NewClient wraps an SDK client bound to bucket.
func NewClient(api *s3.Client, bucket string) *Client {
	return &Client{api: api, bucket: bucket}
}

// NewAPIClient builds an SDK client from cfg.
func NewAPIClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	if cfg.Region != "" {
		configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// New connects to the bucket and returns a backend over it. The bucket
// must already exist.
func New(ctx context.Context, cfg Config) (*objstore.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 backend: bucket is required")
	}

	api, err := NewAPIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := NewClient(api, cfg.Bucket)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return objstore.New(client, objstore.Options{
		Prefix:          cfg.Prefix,
		ReadOnly:        cfg.ReadOnly,
		CopyConcurrency: cfg.CopyConcurrency,
	}), nil
}

func (c *Client) Head(ctx context.Context, key string) (*objstore.ObjectInfo, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, key)
	}
	return &objstore.ObjectInfo{
		Key:      key,
		Size:     aws.ToInt64(out.ContentLength),
		Modified: aws.ToTime(out.LastModified),
		MimeType: out.Metadata[mimeTypeKey],
	}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (c *Client) Put(ctx context.Context, key string, data []byte, mimeType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
		input.Metadata = map[string]string{mimeTypeKey: mimeType}
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return mapError(err, key)
	}
	return nil
}

func (c *Client) Copy(ctx context.Context, src, dst string) error {
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(c.bucket + "/" + escapeKey(src)),
	})
	if err != nil {
		return mapError(err, src)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}

		result, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(result.Errors) > 0 {
			first := result.Errors[0]
			return fmt.Errorf("delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

func (c *Client) List(ctx context.Context, prefix string, delimited bool, limit int) ([]objstore.ObjectInfo, []string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}
	if delimited {
		input.Delimiter = aws.String("/")
	}
	if limit > 0 {
		input.MaxKeys = aws.Int32(int32(limit))
	}

	var objects []objstore.ObjectInfo
	var prefixes []string
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, objstore.ObjectInfo{
				Key:      aws.ToString(obj.Key),
				Size:     aws.ToInt64(obj.Size),
				Modified: aws.ToTime(obj.LastModified),
			})
		}
		for _, p := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(p.Prefix))
		}
		if limit > 0 && len(objects)+len(prefixes) >= limit {
			break
		}
	}
	return objects, prefixes, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	return err
}

func mapError(err error, key string) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("object %s: %w", key, backend.ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", key, err)
}

// escapeKey URL-encodes each segment of key for use in CopySource.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

var _ objstore.Client = (*Client)(nil)
