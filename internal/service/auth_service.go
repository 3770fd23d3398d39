package service

import (
	"errors"
	"os"
	"time"

	"gowa-bridge/internal/helper"

	"github.com/golang-jwt/jwt/v5"
)

// JWT configuration for the single operator account.
var (
	jwtSecret         []byte
	accessTokenExpiry time.Duration
	operatorUsername  string
	operatorPassword  string
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// InitAuthConfig initializes operator authentication from environment values.
// The password may be supplied pre-hashed (bcrypt) via API_PASSWORD_HASH.
func InitAuthConfig(secret, username, password string) {
	jwtSecret = []byte(secret)
	operatorUsername = username
	operatorPassword = password

	accessExp := os.Getenv("JWT_ACCESS_TOKEN_EXPIRY")
	if accessExp == "" {
		accessExp = "12h"
	}
	accessTokenExpiry, _ = time.ParseDuration(accessExp)
	if accessTokenExpiry <= 0 {
		accessTokenExpiry = 12 * time.Hour
	}
}

// Claims represents JWT claims for the operator token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthenticateOperator validates the operator credentials and returns an
// access token.
func AuthenticateOperator(username, password string) (string, error) {
	if username != operatorUsername {
		return "", ErrInvalidCredentials
	}

	if hash := os.Getenv("API_PASSWORD_HASH"); hash != "" {
		if !helper.CheckPassword(password, hash) {
			return "", ErrInvalidCredentials
		}
	} else if operatorPassword == "" || password != operatorPassword {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateAccessToken parses and verifies an access token.
func ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
