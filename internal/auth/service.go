package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dreambid/internal/database"
	"dreambid/internal/models"

	"gorm.io/gorm"
)

const (
	MinRegisterPasswordLength = 6
	MinChangePasswordLength   = 8
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Service manages accounts and issues tokens
type Service struct {
	db       *gorm.DB
	secret   string
	tokenTTL time.Duration
}

// NewService creates a new auth service
func NewService(db *gorm.DB, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Service{db: db, secret: secret, tokenTTL: tokenTTL}
}

// Secret returns the signing key used for tokens
func (s *Service) Secret() string {
	return s.secret
}

// RegisterInput carries the fields accepted at sign-up
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// Register creates a regular user account and returns it with a token
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := NormalizeEmail(in.Email)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := GenerateJWT(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks credentials. The returned user is set whenever the email
// matched an account, even on failure, so callers can attribute the attempt.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		return &user, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return &user, "", ErrAccountInactive
	}

	token, err := GenerateJWT(&user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// ChangePassword verifies the current password and stores the new one
func (s *Service) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(current, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfile changes the editable profile fields
func (s *Service) UpdateProfile(ctx context.Context, id uint, fullName, phone string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"full_name": strings.TrimSpace(fullName),
		"phone":     strings.TrimSpace(phone),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetUser(ctx, id)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email = NormalizeEmail(email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("Auth: created admin account %s", email)
	return nil
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
