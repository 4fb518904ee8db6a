package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

// newTestDB opens a fresh file-backed database in a per-test temp dir.
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, Role: model.RoleUser}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// OPEN / MIGRATE TESTS
// =========================================================================

func TestNew_InMemory(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	defer db.Close()

	u := &model.User{Name: "Ada", Email: "ada@x.com", Role: model.RoleUser}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	createTestUser(t, first, "Ada", "ada@x.com")
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer second.Close()

	u, err := second.Users().GetByEmail(context.Background(), "ada@x.com")
	if err != nil {
		t.Fatalf("GetByEmail() after reopen error = %v", err)
	}
	if u.Name != "Ada" {
		t.Errorf("Name = %q, want %q", u.Name, "Ada")
	}
}

// =========================================================================
// USER TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Name: "Ada", Email: "ada@x.com", Role: model.RoleAdmin}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "ada@x.com" || found.Role != model.RoleAdmin {
		t.Errorf("got %+v, want email ada@x.com role ADMIN", found)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "Ada", "ada@x.com")

	err := db.Users().Create(context.Background(), &model.User{Name: "Other", Email: "ada@x.com", Role: model.RoleUser})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserList_SearchAndOrder(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "Charlie", "charlie@x.com")
	createTestUser(t, db, "Ada", "ada@x.com")
	createTestUser(t, db, "Bob", "bob@y.org")

	tests := []struct {
		name string
		opts repository.UserListOptions
		want []string
	}{
		{"default order is name", repository.UserListOptions{}, []string{"Ada", "Bob", "Charlie"}},
		{"order by id", repository.UserListOptions{OrderBy: "id"}, []string{"Charlie", "Ada", "Bob"}},
		{"unknown column falls back to name", repository.UserListOptions{OrderBy: "name; DROP TABLE users"}, []string{"Ada", "Bob", "Charlie"}},
		{"search matches email", repository.UserListOptions{Search: "x.com"}, []string{"Ada", "Charlie"}},
		{"search matches name", repository.UserListOptions{Search: "Bo"}, []string{"Bob"}},
		{"search treats % literally", repository.UserListOptions{Search: "%"}, []string{}},
		{"limit and offset", repository.UserListOptions{Limit: 1, Offset: 1}, []string{"Bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := db.Users().List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := make([]string, 0, len(users))
			for _, u := range users {
				got = append(got, u.Name)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@x.com")

	user.Name = "Ada Lovelace"
	user.Role = model.RoleAdmin
	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, _ := db.Users().GetByID(context.Background(), user.ID)
	if found.Name != "Ada Lovelace" || found.Role != model.RoleAdmin {
		t.Errorf("after update got %+v", found)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Update(context.Background(), &model.User{ID: 404, Name: "x", Email: "x@x.com", Role: model.RoleUser})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_CascadesHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@x.com")

	if err := db.Activities().Append(ctx, &model.Activity{UserID: user.ID, Type: model.ActivityLogin}); err != nil {
		t.Fatalf("Append activity error = %v", err)
	}
	if err := db.Reports().Append(ctx, &model.Report{UserID: user.ID, Title: "User report", URL: "data:,"}); err != nil {
		t.Fatalf("Append report error = %v", err)
	}

	if err := db.Users().Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	activities, err := db.Activities().ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(activities) != 0 {
		t.Errorf("activities after delete = %d, want 0", len(activities))
	}

	reports, err := db.Reports().ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("reports after delete = %d, want 0", len(reports))
	}

	if err := db.Users().Delete(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
