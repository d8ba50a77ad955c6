package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads documents as authenticated assets so they are only reachable
// through signed URLs.
type CloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiSecret string
	now       func() time.Time
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, cloudName: cloudName, apiSecret: apiSecret, now: time.Now}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader) (Object, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		PublicID:       strings.TrimSuffix(fileName, path.Ext(fileName)),
		UniqueFilename: api.Bool(true),
		ResourceType:   resourceTypeFor(contentType),
		Type:           "authenticated",
	})
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary: failed to upload file: %w", err)
	}
	if result.PublicID == "" {
		return Object{}, fmt.Errorf("cloudinary: no public ID returned")
	}
	return Object{ID: encodeCloudinaryID(result.ResourceType, result.PublicID), URL: result.SecureURL}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, id string) error {
	resourceType, publicID := decodeCloudinaryID(id)
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Type:         "authenticated",
	})
	if err != nil {
		return fmt.Errorf("cloudinary: failed to delete file: %w", err)
	}
	return nil
}

// SignedURL builds a short-lived authenticated delivery URL. The signature is SHA-1 over
// "expires_at" and "public_id" followed by the API secret.
func (s *CloudinaryStore) SignedURL(_ context.Context, id string, ttl time.Duration) (string, error) {
	resourceType, publicID := decodeCloudinaryID(id)
	expiresAt := s.now().Add(ttl).Unix()
	stringToSign := fmt.Sprintf("expires_at=%d&public_id=%s%s", expiresAt, publicID, s.apiSecret)
	return fmt.Sprintf("https://res.cloudinary.com/%s/%s/authenticated/s--%s--/expires_%d/%s",
		s.cloudName, resourceType, computeSHA1(stringToSign), expiresAt, publicID), nil
}

func resourceTypeFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"), contentType == "application/pdf":
		return "image"
	default:
		return "raw"
	}
}

func encodeCloudinaryID(resourceType, publicID string) string {
	if resourceType == "" {
		resourceType = "image"
	}
	return resourceType + ":" + publicID
}

func decodeCloudinaryID(id string) (resourceType, publicID string) {
	if rt, pid, ok := strings.Cut(id, ":"); ok {
		return rt, pid
	}
	return "image", id
}

func computeSHA1(input string) string {
	h := sha1.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
