package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for expired or malformed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

// AuthService authenticates admins for the management API and issues JWT
// bearer tokens.
type AuthService struct {
	db     *gorm.DB
	secret []byte
}

// NewAuthService returns an AuthService signing with the given secret.
func NewAuthService(db *gorm.DB, secret string) *AuthService {
	return &AuthService{db: db, secret: []byte(secret)}
}

// Login verifies credentials and returns a signed token. Disabled accounts
// and wrong passwords produce the same error to avoid account probing.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.AdminUser
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.Enabled || !user.CheckPassword(password) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Save(&user).Error; err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		Subject:   user.UUID,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a bearer token and returns the admin id it was issued for.
func (s *AuthService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// EnsureAdmin creates the admin account if it does not exist yet. Used at
// boot so a fresh deployment has a working login.
func (s *AuthService) EnsureAdmin(email, password string) error {
	var count int64
	if err := s.db.Model(&models.AdminUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user := models.AdminUser{
		UUID:    uuid.NewString(),
		Email:   email,
		Name:    "Administrator",
		Enabled: true,
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.db.Create(&user).Error
}
