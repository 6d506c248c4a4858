// Package domain contains core domain types for the WhatsApp agent service.
package domain

import (
	"time"
)

// User represents a registered customer in the client directory.
//
// Each user belongs to a client (company) and can be resolved either by
// their phone number or by their unique user-facing client code.
type User struct {
	ID         int64     `json:"id"`
	ClientID   string    `json:"client_id"`
	ClientCode string    `json:"client_code"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// IdentityRecord is the resolved identity returned by directory lookups.
// It is transient per lookup and never persisted by the conversation core.
type IdentityRecord struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Identity converts a directory user into the lookup value object.
func (u *User) Identity() IdentityRecord {
	return IdentityRecord{
		ClientID: u.ClientCode,
		Name:     u.Name,
		Email:    u.Email,
	}
}
