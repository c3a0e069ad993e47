package models

import "time"

// Session is a server-stored proof of authentication. Its ID doubles as the
// opaque bearer value carried in the session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
