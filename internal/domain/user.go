package domain

import "time"

// User is the persisted identity record. PasswordHash always holds a bcrypt
// digest once the record exists.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ResetToken   *ResetTokenState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetTokenState is the single active password-reset token of a user.
// TokenHash is the hex SHA-256 of the raw token sent by email.
type ResetTokenState struct {
	TokenHash string
	ExpiresAt time.Time
}

// Sanitized returns a copy safe to hand to clients: no password hash and no
// reset token state.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
