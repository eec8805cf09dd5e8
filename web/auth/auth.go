package auth

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// Authenticator is used to sign tokens and to configure the echo JWT
// middleware that verifies them
type Authenticator struct {
	privateKey *rsa.PrivateKey
	keyID      string
	algorithm  string

	// JWTConfig is handed to echojwt.WithConfig on protected routes
	JWTConfig echojwt.Config
}

// NewAuthenticator creates an Authenticator for the given RSA key pair
func NewAuthenticator(privateKey *rsa.PrivateKey, keyID, algorithm string) (*Authenticator, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key can't be nil")
	}
	if jwt.GetSigningMethod(algorithm) == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}

	a := &Authenticator{
		privateKey: privateKey,
		keyID:      keyID,
		algorithm:  algorithm,
	}

	a.JWTConfig = echojwt.Config{
		SigningKey:    privateKey.Public(),
		SigningMethod: algorithm,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
	}

	return a, nil
}

// GenerateToken signs the claims and returns the token string
func (a *Authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.algorithm)

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = a.keyID

	str, err := token.SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("can't sign token: %w", err)
	}

	return str, nil
}
