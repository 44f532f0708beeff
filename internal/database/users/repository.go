// Package users provides database operations for API users. Only used
// when token auth is enabled.
package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"

	"github.com/mlevchik/mnemo/internal/entities"
)

// Repository handles user database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new user with the given bcrypt password hash and a
// freshly generated API token. The token is returned via the user record
// and shown to the operator once.
func (r *Repository) Create(username, passwordHash string) (*entities.User, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		Token:        token,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ByToken looks a user up by API token.
func (r *Repository) ByToken(token string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("token = ?", token).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ByUsername looks a user up by username.
func (r *Repository) ByUsername(username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RotateToken replaces the user's API token and returns the new value.
func (r *Repository) RotateToken(user *entities.User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	user.Token = token
	if err := r.db.Save(user).Error; err != nil {
		return "", err
	}
	return token, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
