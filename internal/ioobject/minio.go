// Package ioobject implements the object store on an S3-compatible
// service using the MinIO client.
package ioobject

import (
	"context"
	"errors"
	"io"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// cacheControl of uploaded images. Keys are unique per upload.
const cacheControl = "public, max-age=31536000, immutable"

type minioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// New creates an object store (without connecting).
func New() db.ObjectStore {
	return &minioStore{}
}

// Connect creates a client and checks that the bucket exists.
func (m *minioStore) Connect(
	ctx context.Context,
	cfg *config.ObjectStoreConfig,
) error {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.Secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return ConnectionError(cfg.Endpoint, cfg.Bucket, err)
	}
	ok, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return ConnectionError(cfg.Endpoint, cfg.Bucket, err)
	}
	if !ok {
		return ConnectionError(cfg.Endpoint, cfg.Bucket,
			errors.New("bucket does not exist"))
	}

	m.client = cl
	m.bucket = cfg.Bucket
	m.publicBase = cfg.PublicBaseURL
	return nil
}

// Put uploads an object and returns its public URL.
func (m *minioStore) Put(
	ctx context.Context,
	key string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if m.client == nil {
		return "", UploadError(key, errors.New("object store is not connected"))
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size,
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: cacheControl,
		})
	if err != nil {
		return "", UploadError(key, err)
	}
	return PublicURL(m.publicBase, key), nil
}

// PublicURL joins the public base and an object key.
func PublicURL(base, key string) string {
	return base + "/" + key
}
