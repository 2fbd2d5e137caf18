package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/lyzr/tagservice/common/clock"
	"github.com/zeebo/blake3"
)

const (
	// MinTokenHours and MaxTokenHours bound the lifetime of a temporary token
	MinTokenHours = 1
	MaxTokenHours = 720

	// DefaultTokenHours is used when the caller does not ask for a lifetime
	DefaultTokenHours = 24

	macSize    = sha256.Size
	minSecret  = 16
	tokenLabel = "tag-access-token.v1"
)

// ErrInvalidTokenLifetime is returned when the requested lifetime is out of range
var ErrInvalidTokenLifetime = errors.New("invalid token lifetime")

// tokenClaims is the signed payload. Integer keys keep the encoding compact.
type tokenClaims struct {
	TagID     string `cbor:"1,keyasint"`
	TokenID   string `cbor:"2,keyasint"`
	IssuedAt  int64  `cbor:"3,keyasint"` // unix millis
	ExpiresAt int64  `cbor:"4,keyasint"` // unix millis
}

// MintedToken is a freshly issued token with its bookkeeping id
type MintedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies temporary access tokens bound to a tag id
// and an absolute expiry. It holds no state besides the secret.
type TokenCodec struct {
	secret       []byte
	clock        clock.Clock
	defaultHours int
	maxHours     int
	enc          cbor.EncMode
	dec          cbor.DecMode
}

// NewTokenCodec creates a codec signing with secret
func NewTokenCodec(secret []byte, clk clock.Clock) (*TokenCodec, error) {
	if len(secret) < minSecret {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecret)
	}

	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		MaxMapPairs: 16,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create cbor decoder: %w", err)
	}

	return &TokenCodec{
		secret:       append([]byte(nil), secret...),
		clock:        clk,
		defaultHours: DefaultTokenHours,
		maxHours:     MaxTokenHours,
		enc:          enc,
		dec:          dec,
	}, nil
}

// WithLimits overrides the default and maximum lifetimes in hours. A maximum
// outside [MinTokenHours, MaxTokenHours] is ignored.
func (c *TokenCodec) WithLimits(defaultHours, maxHours int) *TokenCodec {
	if maxHours >= MinTokenHours && maxHours <= MaxTokenHours {
		c.maxHours = maxHours
	}
	if defaultHours >= MinTokenHours && defaultHours <= c.maxHours {
		c.defaultHours = defaultHours
	}
	return c
}

// MaxHours returns the longest lifetime Issue accepts
func (c *TokenCodec) MaxHours() int {
	return c.maxHours
}

// Issue mints a token for tagID valid for expiresInHours. Zero means the default lifetime.
func (c *TokenCodec) Issue(tagID string, expiresInHours int) (*MintedToken, error) {
	if expiresInHours == 0 {
		expiresInHours = c.defaultHours
	}
	if expiresInHours < MinTokenHours || expiresInHours > c.maxHours {
		return nil, fmt.Errorf("%w: %d hours not in [%d, %d]", ErrInvalidTokenLifetime, expiresInHours, MinTokenHours, c.maxHours)
	}

	now := c.clock.Now()
	expiresAt := now.Add(time.Duration(expiresInHours) * time.Hour)

	claims := tokenClaims{
		TagID:     tagID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	}

	payload, err := c.enc.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token claims: %w", err)
	}

	raw := make([]byte, 0, len(payload)+macSize)
	raw = append(raw, payload...)
	raw = append(raw, c.sign(payload)...)

	return &MintedToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		TokenID:   claims.TokenID,
		ExpiresAt: time.UnixMilli(claims.ExpiresAt).UTC(),
	}, nil
}

// Verify reports whether token was issued for tagID and has not expired
func (c *TokenCodec) Verify(tagID, token string) bool {
	if token == "" {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= macSize {
		return false
	}

	payload, sig := raw[:len(raw)-macSize], raw[len(raw)-macSize:]
	if !hmac.Equal(sig, c.sign(payload)) {
		return false
	}

	var claims tokenClaims
	if err := c.dec.Unmarshal(payload, &claims); err != nil {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(claims.TagID), []byte(tagID)) != 1 {
		return false
	}

	return c.clock.Now().UnixMilli() < claims.ExpiresAt
}

func (c *TokenCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(tokenLabel))
	mac.Write(payload)
	return mac.Sum(nil)
}

// Fingerprint identifies a token in storage without keeping the token itself
func Fingerprint(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}
