package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAdmin    = "admin"
	PurposeDownload = "download"
)

var ErrWrongPurpose = errors.New("token not valid for this use")

// Claims carry either an admin session (Subject = username) or a download
// grant (Key = document key).
type Claims struct {
	Purpose string `json:"purpose"`
	Key     string `json:"key,omitempty"`
	jwt.RegisteredClaims
}

func sign(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func GenerateAdminToken(secret, username string, ttl time.Duration) (string, error) {
	return sign(secret, Claims{
		Purpose:          PurposeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: username},
	}, ttl)
}

// GenerateDownloadToken grants access to a single document key.
func GenerateDownloadToken(secret, key string, ttl time.Duration) (string, error) {
	return sign(secret, Claims{Purpose: PurposeDownload, Key: key}, ttl)
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// ValidateDownload accepts a download token for key, or any admin token.
func ValidateDownload(secret, tokenStr, key string) error {
	claims, err := ValidateToken(secret, tokenStr)
	if err != nil {
		return err
	}
	switch {
	case claims.Purpose == PurposeAdmin:
		return nil
	case claims.Purpose == PurposeDownload && claims.Key == key:
		return nil
	}
	return ErrWrongPurpose
}
