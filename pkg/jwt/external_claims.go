package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/kereva-dev/duet/pkg/errcode"
)

// ExternalClaims represents claims minted by a trusted external identity
// provider. The provider vouches for a stable subject id plus the profile
// fields needed to auto-create a local account on first sign-in.
type ExternalClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// ParseExternalToken parses a token issued by the configured external
// provider. The registered Subject claim becomes the local user id, so the
// same external principal always maps to the same account.
func ParseExternalToken(tokenString, secret, issuer string) (*ExternalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ExternalClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, errcode.ErrTokenInvalid.Wrap(err)
	}

	claims, ok := token.Claims.(*ExternalClaims)
	if !ok || !token.Valid {
		return nil, errcode.ErrTokenInvalid
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errcode.ErrTokenInvalid
	}

	if issuer != "" && claims.Issuer != issuer {
		return nil, errcode.ErrTokenInvalid
	}

	return claims, nil
}
