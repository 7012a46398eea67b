package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vertex/internal/server/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the credential store.
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// bcryptCost trades hashing time against brute-force resistance.
const bcryptCost = 12

// UserStore is the persistence surface AuthService needs. Implemented by
// database.UserRepository; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, user *database.User) error
	GetByUsername(ctx context.Context, username string) (*database.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// AuthService implements registration and password authentication.
type AuthService struct {
	users UserStore
}

// NewAuthService creates a new auth service.
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Register creates a new account. Username uniqueness is checked before
// email uniqueness, so a request that violates both reports the username
// conflict. The password is bcrypt-hashed; plaintext is never stored.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*database.User, error) {
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords both collapse to ErrInvalidCredentials so callers cannot
// probe which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
