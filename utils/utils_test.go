package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     int64
	}{
		{500, "AED", 50000},
		{125.50, "usd", 12550},
		{0.1 + 0.2, "USD", 30},
		{1999.99, "INR", 199999},
		{1500, "JPY", 1500},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.amount, tc.currency)
		require.NoError(t, err, tc.currency)
		assert.Equal(t, tc.want, got, "%v %s", tc.amount, tc.currency)
	}

	back, err := FromMinorUnits(12550, "USD")
	require.NoError(t, err)
	assert.InDelta(t, 125.50, back, 1e-9)

	_, err = ToMinorUnits(10, "XYZ1")
	assert.Error(t, err)
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = NormalizeCurrency("dollars")
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	cause := errors.New("connection reset")
	cases := map[int]error{
		http.StatusBadRequest:          ValidationError("bad %s", "input"),
		http.StatusNotFound:            NotFoundError("booking not found"),
		http.StatusConflict:            ConflictError("stale"),
		http.StatusUnauthorized:        AuthenticationError("no token"),
		http.StatusForbidden:           AuthorizationError("not yours"),
		http.StatusBadGateway:          GatewayError(cause, "stripe"),
		http.StatusInternalServerError: cause,
	}
	for status, err := range cases {
		assert.Equal(t, status, StatusFor(err), err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", NotFoundError("document not found"))
	assert.Equal(t, http.StatusNotFound, StatusFor(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))

	gw := GatewayError(cause, "failed to refund %s payment", "stripe")
	assert.ErrorIs(t, gw, cause)
	assert.Equal(t, "failed to refund stripe payment: connection reset", gw.Error())
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	token, err := issuer.GenerateToken(Principal{ID: "staff-7", Email: "ops@example.com", Role: RoleStaff}, time.Hour)
	require.NoError(t, err)

	p, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-7", p.ID)
	assert.True(t, p.IsStaff())
	assert.False(t, p.IsAdmin())

	_, err = NewTokenIssuer("other").ValidateToken(token)
	assert.Error(t, err)

	expired, err := issuer.GenerateToken(Principal{ID: "p-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = issuer.ValidateToken(expired)
	assert.Error(t, err)
}

func TestValidateTokenRoles(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	p, err := issuer.ValidateToken(sign(jwt.MapClaims{"sub": "p-1", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, RolePatient, p.Role)

	_, err = issuer.ValidateToken(sign(jwt.MapClaims{"sub": "p-1", "role": "root", "exp": exp}))
	assert.Error(t, err)

	_, err = issuer.ValidateToken(sign(jwt.MapClaims{"role": RoleAdmin, "exp": exp}))
	assert.Error(t, err)
}
