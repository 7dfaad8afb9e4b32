package models

import "time"

// Credential is the single active authentication record. At most one exists
// at any time; storing a new one replaces the previous, logout deletes it.
type Credential struct {
	Token    string
	UserID   int64
	Username string
	IssuedAt time.Time
	Expiry   time.Time
}

// Valid reports whether the credential can still be used for remote calls
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && now.Before(c.Expiry)
}

// RemainingValidity returns how long the credential stays usable
func (c *Credential) RemainingValidity(now time.Time) time.Duration {
	if !c.Valid(now) {
		return 0
	}
	return c.Expiry.Sub(now)
}
