package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/kereva-dev/duet/pkg/constant"
	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-1", constant.PlatformIdWeb, testSecret, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserId)
	assert.Equal(t, constant.PlatformIdWeb, claims.PlatformId)
	assert.Equal(t, "duet", claims.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", constant.PlatformIdWeb, testSecret, 1)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("user-1", constant.PlatformIdWeb, testSecret, -1)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateToken("user-1", constant.PlatformIdWeb, testSecret, 1)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret, "user-1", constant.PlatformIdWeb)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserId)

	_, err = ValidateToken(token, testSecret, "user-2", constant.PlatformIdWeb)
	assert.True(t, errors.Is(err, errcode.ErrTokenMismatch))

	_, err = ValidateToken(token, testSecret, "user-1", constant.PlatformIdAndroid)
	assert.True(t, errors.Is(err, errcode.ErrTokenMismatch))
}

func signExternal(t *testing.T, claims ExternalClaims, secret string) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func externalClaims(subject, email, issuer string) ExternalClaims {
	return ExternalClaims{
		Email:       email,
		DisplayName: "Alice",
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  gojwt.NewNumericDate(time.Now()),
		},
	}
}

func TestParseExternalToken(t *testing.T) {
	token := signExternal(t, externalClaims("ext-1", "alice@example.com", "idp"), testSecret)

	claims, err := ParseExternalToken(token, testSecret, "idp")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestParseExternalTokenIssuerOptional(t *testing.T) {
	token := signExternal(t, externalClaims("ext-1", "alice@example.com", "anything"), testSecret)

	// Empty expected issuer skips the issuer check.
	_, err := ParseExternalToken(token, testSecret, "")
	assert.NoError(t, err)

	_, err = ParseExternalToken(token, testSecret, "idp")
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))
}

func TestParseExternalTokenMissingClaims(t *testing.T) {
	noSubject := signExternal(t, externalClaims("", "alice@example.com", "idp"), testSecret)
	_, err := ParseExternalToken(noSubject, testSecret, "idp")
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))

	noEmail := signExternal(t, externalClaims("ext-1", "", "idp"), testSecret)
	_, err = ParseExternalToken(noEmail, testSecret, "idp")
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))

	wrongSecret := signExternal(t, externalClaims("ext-1", "alice@example.com", "idp"), "other")
	_, err = ParseExternalToken(wrongSecret, testSecret, "idp")
	assert.True(t, errors.Is(err, errcode.ErrTokenInvalid))
}
