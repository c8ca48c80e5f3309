package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"imageserver/internal/config"
)

// ErrInvalidPath is returned for keys that are empty or attempt
// parent-directory traversal.
var ErrInvalidPath = errors.New("invalid storage path")

// ObjectStore is the blob-store contract: store bytes under a relative
// path, delete by relative path. Paths containing ".." are rejected
// before any network call.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Store writes data under relativePath and returns the path actually
// stored.
func (s *ObjectStore) Store(ctx context.Context, data []byte, relativePath string) (string, error) {
	key, err := cleanKey(relativePath)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypeFor(key),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// Delete removes the object and reports whether a delete was issued.
func (s *ObjectStore) Delete(ctx context.Context, relativePath string) (bool, error) {
	key, err := cleanKey(relativePath)
	if err != nil {
		return false, err
	}

	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("remove object %s: %w", key, err)
	}
	return true, nil
}

func (s *ObjectStore) Get(ctx context.Context, relativePath string) ([]byte, error) {
	key, err := cleanKey(relativePath)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func cleanKey(relativePath string) (string, error) {
	if strings.TrimSpace(relativePath) == "" {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(relativePath, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	key := path.Clean(strings.TrimPrefix(relativePath, "/"))
	if key == "." || strings.HasPrefix(key, "..") {
		return "", ErrInvalidPath
	}
	return key, nil
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
