package domain

import "time"

// Role is the coarse authority carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	UserID          string // provider-assigned id, unique key
	Username        string
	Email           string
	EmailVerified   bool
	ProfileImageURL string
	Provider        ProviderType // immutable once set
	Role            Role
	CreatedAt       time.Time
	ModifiedAt      time.Time
}
