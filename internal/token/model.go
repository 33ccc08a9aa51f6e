package token

import "time"

type Token struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
