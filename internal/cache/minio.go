package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures the MinIO download store.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Minio is a download store keeping one object per track in a bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// Verify Minio implements Store at compile time.
var _ Store = (*Minio)(nil)

// NewMinio connects to the server and makes sure the bucket exists.
func NewMinio(ctx context.Context, opts MinioOptions) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Minio{client: client, bucket: opts.Bucket}, nil
}

func objectName(key string) string {
	return "audio/" + key
}

func (m *Minio) Has(ctx context.Context, key string, pos, length int64) bool {
	info, err := m.client.StatObject(ctx, m.bucket, objectName(key), minio.StatObjectOptions{})
	if err != nil {
		return false
	}
	if length < 0 {
		return pos < info.Size
	}
	return pos+length <= info.Size
}

func (m *Minio) Open(ctx context.Context, key string, pos, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	var err error
	switch {
	case length < 0 && pos > 0:
		err = opts.SetRange(pos, 0)
	case length > 0:
		err = opts.SetRange(pos, pos+length-1)
	}
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, objectName(key), opts)
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrMiss
		}
		return nil, err
	}
	return obj, nil
}

func (m *Minio) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName(key), r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (m *Minio) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName(key), minio.RemoveObjectOptions{})
}
