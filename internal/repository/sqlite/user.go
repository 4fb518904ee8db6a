package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the user directory table.
type UserDB struct {
	conn *sql.DB
}

// Users returns the user repository backed by db.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

const userColumns = `id, name, email, role, password_hash, created_at, updated_at`

// userOrderColumns maps the sortable API field names to SQL columns.
// ORDER BY cannot be parameterised, so only names found here reach the query.
var userOrderColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

// Create inserts a new user and fills in its ID and timestamps.
// A duplicate email is reported as apperror.ErrConflict.
func (repo *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := repo.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (repo *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := repo.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email address.
func (repo *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := repo.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// List returns users matching opts.Search on name or email, sorted
// ascending by opts.OrderBy (name when empty or unknown).
func (repo *UserDB) List(ctx context.Context, opts repository.UserListOptions) ([]model.User, error) {
	orderBy, ok := userOrderColumns[opts.OrderBy]
	if !ok {
		orderBy = "name"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if opts.Search != "" {
		query.WriteString(` WHERE name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`)
		pattern := "%" + escapeLike(opts.Search) + "%"
		args = append(args, pattern, pattern)
	}
	query.WriteString(` ORDER BY ` + orderBy + ` ASC, id ASC LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	rows, err := repo.conn.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update saves name, email, role and password hash of an existing user.
func (repo *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := repo.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, role = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %d: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(user.ID, 10))
	}
	return nil
}

// Delete removes a user. Its activities and reports go with it.
func (repo *UserDB) Delete(ctx context.Context, id int64) error {
	res, err := repo.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
