package service

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/lyzr/tagservice/common/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) (*TokenCodec, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	codec, err := NewTokenCodec(testSecret, clk)
	require.NoError(t, err)
	return codec, clk
}

func TestNewTokenCodec_ShortSecret(t *testing.T) {
	_, err := NewTokenCodec([]byte("short"), clock.Real())
	assert.Error(t, err)
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec, _ := newCodec(t)

	minted, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, minted.TokenID)

	assert.True(t, codec.Verify("tag-1", minted.Token))
	assert.False(t, codec.Verify("tag-2", minted.Token))
}

func TestTokenCodec_Expiry(t *testing.T) {
	codec, clk := newCodec(t)

	minted, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)

	clk.Advance(time.Hour - time.Millisecond)
	assert.True(t, codec.Verify("tag-1", minted.Token))

	clk.Advance(time.Millisecond)
	assert.False(t, codec.Verify("tag-1", minted.Token), "expiry instant is already invalid")
}

func TestTokenCodec_Lifetimes(t *testing.T) {
	codec, clk := newCodec(t)

	tests := []struct {
		name    string
		hours   int
		want    time.Duration
		wantErr bool
	}{
		{"default", 0, 24 * time.Hour, false},
		{"minimum", 1, time.Hour, false},
		{"maximum", 720, 720 * time.Hour, false},
		{"negative", -1, 0, true},
		{"too long", 721, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minted, err := codec.Issue("tag-1", tt.hours)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTokenLifetime)
				return
			}
			require.NoError(t, err)
			assert.True(t, clk.Now().Add(tt.want).Equal(minted.ExpiresAt))
		})
	}
}

func TestTokenCodec_WithLimits(t *testing.T) {
	codec, clk := newCodec(t)
	codec.WithLimits(2, 48)

	assert.Equal(t, 48, codec.MaxHours())

	minted, err := codec.Issue("tag-1", 0)
	require.NoError(t, err)
	assert.True(t, clk.Now().Add(2*time.Hour).Equal(minted.ExpiresAt))

	_, err = codec.Issue("tag-1", 49)
	assert.ErrorIs(t, err, ErrInvalidTokenLifetime)
}

func TestTokenCodec_WithLimitsIgnoresMaxAboveCeiling(t *testing.T) {
	codec, clk := newCodec(t)
	codec.WithLimits(24, 100000)

	assert.Equal(t, MaxTokenHours, codec.MaxHours())

	_, err := codec.Issue("tag-1", 100000)
	assert.ErrorIs(t, err, ErrInvalidTokenLifetime)

	minted, err := codec.Issue("tag-1", MaxTokenHours)
	require.NoError(t, err)

	clk.Advance(MaxTokenHours*time.Hour + time.Minute)
	assert.False(t, codec.Verify("tag-1", minted.Token))
}

func TestTokenCodec_RejectsGarbage(t *testing.T) {
	codec, _ := newCodec(t)

	for _, token := range []string{
		"",
		"not-a-token",
		"!!!!",
		base64.RawURLEncoding.EncodeToString([]byte("short")),
		base64.RawURLEncoding.EncodeToString(make([]byte, 64)),
	} {
		assert.False(t, codec.Verify("tag-1", token), "token %q", token)
	}
}

func TestTokenCodec_RejectsTampering(t *testing.T) {
	codec, _ := newCodec(t)

	minted, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(minted.Token)
	require.NoError(t, err)

	// flip a payload byte
	tampered := append([]byte(nil), raw...)
	tampered[2] ^= 0x01
	assert.False(t, codec.Verify("tag-1", base64.RawURLEncoding.EncodeToString(tampered)))

	// flip a signature byte
	tampered = append([]byte(nil), raw...)
	tampered[len(tampered)-1] ^= 0x01
	assert.False(t, codec.Verify("tag-1", base64.RawURLEncoding.EncodeToString(tampered)))
}

func TestTokenCodec_OtherSecret(t *testing.T) {
	codec, clk := newCodec(t)
	other, err := NewTokenCodec([]byte("another-secret-0123456789"), clk)
	require.NoError(t, err)

	minted, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)

	assert.False(t, other.Verify("tag-1", minted.Token))
}

func TestTokenCodec_UniqueTokens(t *testing.T) {
	codec, _ := newCodec(t)

	a, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)
	b, err := codec.Issue("tag-1", 1)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, Fingerprint(a.Token), Fingerprint(b.Token))
	assert.Equal(t, Fingerprint(a.Token), Fingerprint(a.Token))
	assert.Len(t, Fingerprint(a.Token), 32)
}
