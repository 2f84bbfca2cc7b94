package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daily-charge/internal/apperr"
	"daily-charge/internal/auth"
	"daily-charge/internal/model"
	"daily-charge/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService handles signup and login, returning a signed token on success.
type AuthService struct {
	users  *repository.UserRepository
	tokens *auth.Manager
	log    *zap.SugaredLogger
}

func NewAuthService(users *repository.UserRepository, tokens *auth.Manager, log *zap.SugaredLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Signup validates credentials, creates the account, and issues a token.
func (s *AuthService) Signup(ctx context.Context, email, password, passwordConfirm string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, "", apperr.Validation("email", "must be a valid address")
	}
	if len(password) < 8 {
		return nil, "", apperr.Validation("password", "must be at least 8 characters")
	}
	if password != passwordConfirm {
		return nil, "", apperr.Validation("passwordConfirm", "passwords do not match")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Store("find user", err)
	}
	if existing != nil {
		return nil, "", apperr.Validation("email", "already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Store("hash password", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", apperr.Store("create user", err)
	}
	s.log.Infow("user created", "userID", user.ID)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", apperr.Store("issue token", err)
	}
	return user, token, nil
}

// Login checks credentials and issues a token. Wrong email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Store("find user", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", apperr.Auth("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", apperr.Store("issue token", err)
	}
	return user, token, nil
}

// CurrentUser loads the account behind a resolved user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperr.Auth("no user id in context")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Store("find user", err)
	}
	return user, nil
}
