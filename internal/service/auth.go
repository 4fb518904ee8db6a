package service

// AuthService is the business logic behind sign-in:
//
//	AuthHandler (HTTP) → AuthService → UserRepository / ActivityRepository
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Every successful sign-in, by password or through GitHub, appends a LOGIN
// activity to the user's history; those are what the report counts.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/auth"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

const LoginActivityTitle = "User logged in"

// errBadCredentials is deliberately vague: it must not reveal whether the
// email exists.
var errBadCredentials = apperror.Unauthorized("invalid email or password")

// AuthService handles the authentication business logic.
type AuthService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	now        func() time.Time
	logger     *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	activities repository.ActivityRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		activities: activities,
		tokens:     tokens,
		passwords:  passwords,
		now:        time.Now,
		logger:     logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login checks an email/password pair. Accounts without a password (GitHub
// only) cannot sign in this way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		return nil, errBadCredentials
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.Int64("userID", user.ID))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password of user %d: %w", user.ID, err)
	}

	return s.signIn(ctx, user, "Signed in with password")
}

// LoginWithGitHub signs in the directory user whose email matches the GitHub
// profile, creating a USER account on first sign-in.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := strings.TrimSpace(ghUser.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no verified email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Name:  ghUser.DisplayName(),
			Email: email,
			Role:  model.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: registering GitHub user %s: %w", ghUser.Login, err)
		}
		s.logger.Info("user registered via GitHub",
			slog.Int64("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	return s.signIn(ctx, user, "Signed in with GitHub as "+ghUser.Login)
}

// signIn records the LOGIN activity and issues a token. A failure to record
// the activity is logged and does not block the sign-in.
func (s *AuthService) signIn(ctx context.Context, user *model.User, details string) (*AuthResult, error) {
	login := &model.Activity{
		UserID:    user.ID,
		Type:      model.ActivityLogin,
		Title:     LoginActivityTitle,
		Details:   details,
		Timestamp: s.now(),
	}
	if err := s.activities.Append(ctx, login); err != nil {
		s.logger.Warn("could not record login activity",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user authenticated", slog.Int64("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the user behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, p auth.Principal) (*model.User, error) {
	if p.UserID == 0 {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	return s.users.GetByID(ctx, p.UserID)
}

// TokenTTL is the lifetime of issued tokens, used for the cookie MaxAge.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// EnsureAdmin creates an ADMIN account with the given credentials unless a
// user with that email already exists. It runs once at startup so a fresh
// database has someone who can manage the directory.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin user", slog.Int64("userID", existing.ID))
		}
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: looking up bootstrap admin: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing bootstrap admin password: %w", err)
	}

	admin := &model.User{
		Name:         "Administrator",
		Email:        email,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("service/auth: creating bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", slog.Int64("userID", admin.ID))
	return nil
}
