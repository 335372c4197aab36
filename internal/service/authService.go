package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoAdminCredentials = errors.New("no admin password configured")
)

type AuthService struct {
	repo      *repository.AdminUserRepository
	jwtSecret []byte
	jwtExpiry time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func NewAuthService(repo *repository.AdminUserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(secret),
		jwtExpiry: expiry,
	}
}

func (s *AuthService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// EnsureAdmin creates the admin account, or refreshes its password when it
// already exists. passwordHash wins over password when both are set.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, passwordHash string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if password == "" && passwordHash == "" {
		if existing != nil {
			return nil
		}
		return ErrNoAdminCredentials
	}

	hash := passwordHash
	if hash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hash = string(hashed)
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("admin password hash is not a bcrypt hash: %w", err)
	}

	if existing != nil {
		return s.repo.UpdatePasswordHash(ctx, username, hash)
	}

	return s.repo.Create(ctx, &models.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         "admin",
	})
}

// Authenticates the admin and returns a signed token with its expiry
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.jwtExpiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validates a JWT token and return the claims
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
