package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminUser can authenticate against the management API and operate the
// block registry and alert workflow.
type AdminUser struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UUID         string     `json:"uuid" gorm:"uniqueIndex"`
	Email        string     `json:"email" gorm:"uniqueIndex"`
	PasswordHash string     `json:"-"` // Never serialize password hash
	Name         string     `json:"name"`
	Enabled      bool       `json:"enabled" gorm:"default:true"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SetPassword hashes and sets the user's password.
func (u *AdminUser) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (u *AdminUser) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
