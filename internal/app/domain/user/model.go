package user

import "time"

// Role tags a user as a reader or a librarian.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a library member. PasswordHash never leaves the service layer.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	ProfileImage string    `json:"profile_image,omitempty" db:"profile_image"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user may moderate loans.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProfilePatch carries the editable profile fields. Nil fields are left as is.
type ProfilePatch struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// Apply merges the patch into u.
func (p ProfilePatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	return u
}
