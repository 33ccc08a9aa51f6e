package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

const RefreshTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrExpiredToken = errors.New("refresh token expired")
)

// GenerateToken returns length random bytes hex-encoded.
func GenerateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func NewRefreshToken(userID int64, now time.Time) (*Token, error) {
	s, err := GenerateToken(32)
	if err != nil {
		return nil, err
	}
	return &Token{UserID: userID, Token: s, ExpiresAt: now.Add(RefreshTTL), CreatedAt: now}, nil
}
