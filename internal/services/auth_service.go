package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"market/internal/models"
	"market/internal/repositories"
)

// AuthService authenticates credentials, issues and resolves bearer tokens
// and registers new users. It keeps no state of its own: everything lives in
// the user repository it wraps.
type AuthService struct {
	users  repositories.UserRepository
	hasher PasswordHasher
	tokens *TokenManager
}

// NewAuthService creates a new AuthService over a unit's user repository.
func NewAuthService(users repositories.UserRepository, hasher PasswordHasher, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// AuthProvider holds the primitives shared by every AuthService and builds
// one per unit of work.
type AuthProvider struct {
	Hasher PasswordHasher
	Tokens *TokenManager
}

// Service returns an AuthService over users.
func (p AuthProvider) Service(users repositories.UserRepository) *AuthService {
	return NewAuthService(users, p.Hasher, p.Tokens)
}

// GetUserByUsername returns the user with that username, or nil if there is
// none.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := s.users.List(ctx, repositories.Filter{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	switch len(users) {
	case 0:
		return nil, nil
	case 1:
		return &users[0], nil
	}
	return nil, fmt.Errorf("found %d users named %s", len(users), username)
}

// IsUsernameAvailable reports whether no user has username.
func (s *AuthService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user == nil, nil
}

// RegisterUser hashes the password and stages a new user. The caller must
// commit the unit of work. The availability check is best effort; the
// unique username index is what rejects concurrent registrations.
func (s *AuthService) RegisterUser(ctx context.Context, id, username, password, fullName string) (*models.User, error) {
	available, err := s.IsUsernameAvailable(ctx, username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:       id,
		Username: username,
		Password: hashed,
		FullName: fullName,
	}
	added, err := s.users.Add(ctx, user)
	if err != nil {
		return nil, asCollision(fmt.Errorf("failed to register user: %w", err), ErrUsernameTaken)
	}
	return added, nil
}

// AuthenticateUser returns the user when password matches, nil otherwise.
func (s *AuthService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if !s.hasher.Verify(user.Password, password) {
		return nil, nil
	}
	return user, nil
}

// Login issues a bearer token for valid credentials. Bad credentials yield
// a nil token and a nil error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Token, error) {
	user, err := s.AuthenticateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	accessToken, err := s.tokens.CreateAccessToken(user.Username, s.tokens.Expiry())
	if err != nil {
		return nil, err
	}
	return &models.Token{AccessToken: accessToken, TokenType: models.TokenTypeBearer}, nil
}

// GetUser resolves the user a token was issued to. It fails with
// ErrInvalidToken when the token does not verify and returns nil when the
// user no longer exists.
func (s *AuthService) GetUser(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.DecodeToken(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Printf("Token validation error: %v", err)
		}
		return nil, err
	}
	return s.GetUserByUsername(ctx, username)
}
