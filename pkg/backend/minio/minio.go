// Package minio stores contents in a MinIO (or other S3-compatible) bucket
// through minio-go.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/backend/objstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const mimeTypeKey = "mimetype"

// Config configures a MinIO backend.
type Config struct {
	// Endpoint is the server address, e.g. "localhost:9000".
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`

	// Prefix namespaces every key.
	Prefix string `mapstructure:"prefix"`

	CopyConcurrency int  `mapstructure:"copy_concurrency"`
	ReadOnly        bool `mapstructure:"read_only"`

	// Client is a pre-configured client. Endpoint and credentials are
	// ignored when set.
	Client *minio.Client `mapstructure:"-"`
}

// Client implements objstore.Client with minio-go.
type Client struct {
	api    *minio.Client
	bucket string
}

// NewClient wraps a minio-go client bound to bucket.
func NewClient(api *minio.Client, bucket string) *Client {
	return &Client{api: api, bucket: bucket}
}

// New connects to the bucket and returns a backend over it. The bucket
// must already exist.
func New(ctx context.Context, cfg Config) (*objstore.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		return nil, errors.New("minio backend: bucket is required")
	}

	api := cfg.Client
	if api == nil {
		if cfg.Endpoint == "" {
			return nil, errors.New("minio backend: endpoint is required")
		}
		var err error
		api, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
	}

	client := NewClient(api, cfg.Bucket)
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}

	return objstore.New(client, objstore.Options{
		Prefix:          cfg.Prefix,
		ReadOnly:        cfg.ReadOnly,
		CopyConcurrency: cfg.CopyConcurrency,
	}), nil
}

func (c *Client) Head(ctx context.Context, key string) (*objstore.ObjectInfo, error) {
	info, err := c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, key)
	}
	return &objstore.ObjectInfo{
		Key:      key,
		Size:     info.Size,
		Modified: info.LastModified,
		MimeType: userMetadata(info.UserMetadata, mimeTypeKey),
	}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, key)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, key)
	}
	return data, nil
}

func (c *Client) Put(ctx context.Context, key string, data []byte, mimeType string) error {
	opts := minio.PutObjectOptions{}
	if mimeType != "" {
		opts.ContentType = mimeType
		opts.UserMetadata = map[string]string{mimeTypeKey: mimeType}
	}

	_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return mapError(err, key)
	}
	return nil
}

func (c *Client) Copy(ctx context.Context, src, dst string) error {
	_, err := c.api.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: c.bucket, Object: src},
	)
	if err != nil {
		return mapError(err, src)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var firstErr error
	for result := range c.api.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", result.ObjectName, result.Err)
		}
	}
	return firstErr
}

func (c *Client) List(ctx context.Context, prefix string, delimited bool, limit int) ([]objstore.ObjectInfo, []string, error) {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []objstore.ObjectInfo
	var prefixes []string
	for obj := range c.api.ListObjects(listCtx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: !delimited,
	}) {
		if obj.Err != nil {
			return nil, nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		// Common prefixes come back as keys ending in "/"; the marker of
		// the listed directory itself is a real object.
		if delimited && obj.Key != prefix && strings.HasSuffix(obj.Key, "/") {
			prefixes = append(prefixes, obj.Key)
		} else {
			objects = append(objects, objstore.ObjectInfo{
				Key:      obj.Key,
				Size:     obj.Size,
				Modified: obj.LastModified,
			})
		}

		if limit > 0 && len(objects)+len(prefixes) >= limit {
			break
		}
	}
	return objects, prefixes, nil
}

func (c *Client) Ping(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to access bucket %q: %w", c.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q: %w", c.bucket, backend.ErrNotFound)
	}
	return nil
}

func mapError(err error, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("object %s: %w", key, backend.ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", key, err)
}

func userMetadata(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

var _ objstore.Client = (*Client)(nil)
