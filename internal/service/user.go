// Package service contains the business logic layer of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept repository interfaces, never *sqlite.DB, so tests can pass
// the testify mocks from internal/repository/mocks. They return apperror
// values and know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/auth"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

const (
	MaxUserNameLength = 100
	MaxEmailLength    = 254
	DefaultListLimit  = 20
	MaxListLimit      = 100
	DefaultUserOrder  = "name"
)

// sortableUserFields is the whitelist for ListUsersInput.OrderBy.
var sortableUserFields = map[string]bool{
	"id":        true,
	"name":      true,
	"email":     true,
	"role":      true,
	"createdAt": true,
}

// CreateUserInput is the data accepted when adding a user.
// Role defaults to USER. Password is optional; without one the account can
// only sign in through GitHub.
type CreateUserInput struct {
	Name     string
	Email    string
	Role     model.Role
	Password string
}

// UpdateUserInput is a partial update: nil fields are left unchanged.
// Only these fields can change; anything else a client sends is ignored.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *model.Role
	Password *string
}

// ListUsersInput filters and pages the directory. Take <= 0 means the
// default page size.
type ListUsersInput struct {
	Search  string
	OrderBy string
	Skip    int
	Take    int
}

// UserService manages the user directory.
type UserService struct {
	repo      repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
	}
}

// Create validates and saves a new user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("role must be %s or %s", model.RoleAdmin, model.RoleUser))
	}

	user := &model.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if in.Password != "" {
		if user.PasswordHash, err = s.hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// Get returns the user with the given ID or an apperror.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user ID must be a positive integer")
	}
	return s.repo.GetByID(ctx, id)
}

// List searches the directory by name or email and returns one page of
// results sorted ascending by the requested field.
func (s *UserService) List(ctx context.Context, in ListUsersInput) ([]model.User, error) {
	orderBy := in.OrderBy
	if orderBy == "" {
		orderBy = DefaultUserOrder
	}
	if !sortableUserFields[orderBy] {
		return nil, apperror.ValidationFailed("orderBy", fmt.Sprintf("cannot order users by %q", orderBy))
	}

	limit := in.Take
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(in.Skip, 0)

	users, err := s.repo.List(ctx, repository.UserListOptions{
		Search:  strings.TrimSpace(in.Search),
		OrderBy: orderBy,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update applies the non-nil fields of in to the user.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if user.Name, err = validateName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if user.Email, err = validateEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperror.ValidationFailed("role", fmt.Sprintf("role must be %s or %s", model.RoleAdmin, model.RoleUser))
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		if user.PasswordHash, err = s.hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}

	s.logger.Info("user updated", slog.Int64("id", user.ID))
	return user, nil
}

// Delete removes the user together with their activities and reports and
// returns the record as it was before deletion.
func (s *UserService) Delete(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting user %d: %w", id, err)
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return user, nil
}

func (s *UserService) hashPassword(plaintext string) (string, error) {
	if len(plaintext) < 8 {
		return "", apperror.ValidationFailed("password", "password must be at least 8 characters")
	}
	hash, err := s.passwords.Hash(plaintext)
	if err != nil {
		return "", apperror.ValidationFailed("password", err.Error())
	}
	return hash, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	return name, nil
}

// validateEmail accepts a bare address only ("a@b.c", not "A <a@b.c>").
func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return "", apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}
