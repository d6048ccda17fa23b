package upstream

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// JWTVerifier checks access tokens signed by the hosted identity service with its shared HS256 secret.
type JWTVerifier struct {
	secret   []byte
	audience string
}

type hostedClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTVerifier returns a verifier for tokens signed with secret. When audience is not
// empty the aud claim must contain it.
func NewJWTVerifier(secret, audience string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("[NewJWTVerifier] secret is required")
	}
	return &JWTVerifier{secret: []byte(secret), audience: audience}, nil
}

// Verify validates the signature and expiry and returns the identity in the token.
func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &hostedClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email}, nil
}
