package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "invoicepdf"

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (g *Gate) issueToken(email string) (string, error) {
	now := g.now()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.SessionTTL)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// parseToken only accepts HS256.
func (g *Gate) parseToken(s string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(s, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(g.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
