// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, opts repository.UserListOptions) ([]model.User, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]model.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, activity *model.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *ActivityRepository) ListByUser(ctx context.Context, userID int64) ([]model.Activity, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]model.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReportRepository is a mock for repository.ReportRepository.
type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) Append(ctx context.Context, report *model.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *ReportRepository) ListByUser(ctx context.Context, userID int64) ([]model.Report, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]model.Report); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.ActivityRepository = (*ActivityRepository)(nil)
	_ repository.ReportRepository   = (*ReportRepository)(nil)
)
