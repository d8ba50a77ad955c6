package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	RolePatient = "patient"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	ID    string
	Email string
	Role  string
}

// IsStaff reports whether the principal may act as staff. Admins are staff.
func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// TokenIssuer signs and validates HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT token for the principal that expires after duration.
func (t *TokenIssuer) GenerateToken(p Principal, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"role":  p.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses and validates a token string and returns the caller it names.
func (t *TokenIssuer) ValidateToken(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Principal{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	switch role {
	case RolePatient, RoleStaff, RoleAdmin:
	case "":
		role = RolePatient
	default:
		return Principal{}, errors.New("token carries an unknown role")
	}
	email, _ := claims["email"].(string)

	return Principal{ID: sub, Email: email, Role: role}, nil
}
