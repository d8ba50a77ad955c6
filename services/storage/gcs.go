package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore keeps documents in a private Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
}

func NewGCSStore(ctx context.Context, credentialsFile, bucketName string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucketName: bucketName}, nil
}

func (s *GCSStore) Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader) (Object, error) {
	objectPath := path.Join(folder, uuid.NewString()+"-"+path.Base(fileName))
	w := s.client.Bucket(s.bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to copy file to storage: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close writer: %w", err)
	}

	return Object{
		ID:  objectPath,
		URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, url.PathEscape(objectPath)),
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Bucket(s.bucketName).Object(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *GCSStore) SignedURL(_ context.Context, id string, ttl time.Duration) (string, error) {
	signed, err := s.client.Bucket(s.bucketName).SignedURL(id, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signed, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
