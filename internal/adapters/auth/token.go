package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"studyhub/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type jwtIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTIssuer returns a TokenIssuer that signs JWTs with HS256 using the given secret.
// The expiry passed to Issue is used for each token.
func NewJWTIssuer(secret, issuer string) domain.TokenIssuer {
	return &jwtIssuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (i *jwtIssuer) Issue(accountID, email string, expiry time.Duration) (string, error) {
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

var errMissingSubject = errors.New("token has no subject")

type jwtVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier returns a TokenVerifier for HS256 tokens issued by NewJWTIssuer.
func NewJWTVerifier(secret, issuer string) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *jwtVerifier) Verify(tokenString string) (string, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}
