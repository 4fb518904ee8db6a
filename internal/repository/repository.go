// Package repository declares the storage contracts the services depend on.
// internal/repository/sqlite provides the implementation.
package repository

import (
	"context"

	"github.com/sakif/user-reports/internal/model"
)

// UserListOptions filters and pages the user directory.
// OrderBy is a column name already checked against a whitelist by the caller.
type UserListOptions struct {
	Search  string
	OrderBy string
	Limit   int
	Offset  int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts UserListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// ActivityRepository is the append-only activity store.
type ActivityRepository interface {
	Append(ctx context.Context, activity *model.Activity) error
	// ListByUser returns the user's full history in insertion order.
	ListByUser(ctx context.Context, userID int64) ([]model.Activity, error)
}

// ReportRepository is the ledger of generated reports.
type ReportRepository interface {
	Append(ctx context.Context, report *model.Report) error
	ListByUser(ctx context.Context, userID int64) ([]model.Report, error)
}
