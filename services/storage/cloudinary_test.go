package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryIDRoundTrip(t *testing.T) {
	rt, pid := decodeCloudinaryID(encodeCloudinaryID("raw", "bookings/b1/medical/report"))
	assert.Equal(t, "raw", rt)
	assert.Equal(t, "bookings/b1/medical/report", pid)

	rt, pid = decodeCloudinaryID("legacy-id")
	assert.Equal(t, "image", rt)
	assert.Equal(t, "legacy-id", pid)
}

func TestCloudinarySignedURLExpires(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	s := &CloudinaryStore{cloudName: "demo", apiSecret: "secret", now: func() time.Time { return fixed }}

	signed, err := s.SignedURL(context.Background(), "image:bookings/b1/insurance/policy", 10*time.Minute)
	require.NoError(t, err)

	expiresAt := fixed.Add(10 * time.Minute).Unix()
	sig := computeSHA1(fmt.Sprintf("expires_at=%d&public_id=%s%s", expiresAt, "bookings/b1/insurance/policy", "secret"))
	assert.Equal(t,
		fmt.Sprintf("https://res.cloudinary.com/demo/image/authenticated/s--%s--/expires_%d/bookings/b1/insurance/policy", sig, expiresAt),
		signed)
}

func TestResourceTypeFor(t *testing.T) {
	assert.Equal(t, "image", resourceTypeFor("image/png"))
	assert.Equal(t, "image", resourceTypeFor("application/pdf"))
	assert.Equal(t, "raw", resourceTypeFor("application/msword"))
}
