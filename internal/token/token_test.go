package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-do-not-use"

func fixedCodec(at time.Time) *Codec {
	c := NewCodec(testSecret, 0)
	c.now = func() time.Time { return at }
	return c
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := NewCodec(testSecret, time.Hour)

	raw, err := c.Issue(42, "alice")
	require.NoError(t, err)

	claims, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestDefaultTTLIsSevenDays(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := fixedCodec(issuedAt)

	raw, err := c.Issue(1, "alice")
	require.NoError(t, err)

	claims, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenIsURLSafe(t *testing.T) {
	raw, err := NewCodec(testSecret, 0).Issue(7, "bob+partner/with?odd=chars")
	require.NoError(t, err)

	segments := strings.Split(raw, ".")
	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.NotContains(t, seg, "+")
		assert.NotContains(t, seg, "/")
		assert.NotContains(t, seg, "=")
	}

	header, err := base64.RawURLEncoding.DecodeString(segments[0])
	require.NoError(t, err)
	assert.Contains(t, string(header), `"alg":"HS256"`)
	assert.Contains(t, string(header), `"typ":"JWT"`)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := fixedCodec(issuedAt).Issue(1, "alice")
	require.NoError(t, err)

	later := fixedCodec(issuedAt.Add(DefaultTTL + time.Second))
	_, err = later.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	c := NewCodec(testSecret, 0)
	raw, err := c.Issue(1, "alice")
	require.NoError(t, err)

	segments := strings.Split(raw, ".")
	payload := []byte(segments[1])
	for i := range payload {
		mutated := append([]byte(nil), payload...)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		tampered := segments[0] + "." + string(mutated) + "." + segments[2]
		_, err := c.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalid, "byte %d", i)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	c := NewCodec(testSecret, 0)
	raw, err := c.Issue(1, "alice")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", raw + ".extra"},
		{"garbage", "!!!.???.***"},
		{"wrong secret", mustSign(t, jwt.SigningMethodHS256, "other-secret", validClaims())},
		{"wrong algorithm", mustSign(t, jwt.SigningMethodHS512, testSecret, validClaims())},
		{"alg none", mustSignNone(t, validClaims())},
		{"missing exp", mustSign(t, jwt.SigningMethodHS256, testSecret, Claims{UserID: 1, Username: "alice"})},
		{"missing user", mustSign(t, jwt.SigningMethodHS256, testSecret, Claims{
			Username:         "alice",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := c.Verify(tt.raw)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func validClaims() Claims {
	return Claims{
		UserID:   1,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func mustSign(t *testing.T, method jwt.SigningMethod, secret string, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func mustSignNone(t *testing.T, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return raw
}
