package models

import "time"

// Profile is the identity-provider data kept alongside a user's ledger
type Profile struct {
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Merge copies the non-empty fields of other over p, like a merge write
func (p Profile) Merge(other Profile) Profile {
	if other.Name != "" {
		p.Name = other.Name
	}
	if other.Email != "" {
		p.Email = other.Email
	}
	if other.CreatedAt != nil && p.CreatedAt == nil {
		p.CreatedAt = other.CreatedAt
	}
	if other.LastLogin != nil {
		p.LastLogin = other.LastLogin
	}
	return p
}
