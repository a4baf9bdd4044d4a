package domain

import "time"

// TokenRecord is the provider token pair stored for a user. There is at most one per user.
type TokenRecord struct {
	UserID       string    `json:"user_id" db:"user_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the access token is no longer usable at now
func (t TokenRecord) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// ExpiresAtMillis returns the expiry as epoch milliseconds
func (t TokenRecord) ExpiresAtMillis() int64 {
	return t.ExpiresAt.UnixMilli()
}

// SessionClaims identifies the local user behind a service session token
type SessionClaims struct {
	ID     string `json:"jti"`
	UserID string `json:"user_id"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the session is expired
func (c SessionClaims) IsExpired() bool {
	return time.Now().Unix() > c.Exp
}

// TTL returns the remaining lifetime of the session
func (c SessionClaims) TTL() time.Duration {
	return time.Until(time.Unix(c.Exp, 0))
}
