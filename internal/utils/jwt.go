package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"   // secure random bytes for refresh tokens
	"crypto/sha256" // refresh tokens are stored hashed
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that does
// not verify.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // UTC expiration time
}

// RefreshToken is the raw value handed to the client.  Only its SHA-256
// hash is persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// Claims is what the admin API reads back out of an access token.
type Claims struct {
	UserID uint64
	Role   string
}

// NewAccessToken signs an HS256 JWT carrying sub (the admin user ID as a
// decimal string), role, exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and extracts its claims.
// Only HMAC signing methods are accepted.
func ParseAccessToken(secret, raw string) (Claims, *jwt.Token, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, nil, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, nil, ErrInvalidToken
	}
	var c Claims
	switch sub := mc["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, nil, ErrInvalidToken
		}
		c.UserID = id
	case float64:
		// numeric sub from older tokens
		c.UserID = uint64(sub)
	default:
		return Claims{}, nil, ErrInvalidToken
	}
	c.Role, _ = mc["role"].(string)
	return c, tok, nil
}

// NewRefreshToken returns 48 random bytes, hex encoded, valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
