package domain

import "time"

// RefreshToken is the stored side of an opaque refresh token. Only TokenHash is
// persisted; RawToken is set on the value handed back from issuance and never
// written anywhere. A row exists exactly while its raw token is usable.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RawToken   string
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
