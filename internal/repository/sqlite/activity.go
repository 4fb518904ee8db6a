package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

var _ repository.ActivityRepository = (*ActivityDB)(nil)

// ActivityDB is the append-only activity store. Rows are never updated.
type ActivityDB struct {
	conn *sql.DB
}

// Activities returns the activity repository backed by db.
func (db *DB) Activities() *ActivityDB {
	return &ActivityDB{conn: db.conn}
}

// Append stores a new activity and fills in its CreatedAt. An empty ID is
// assigned before the insert and kept, so appending the same value again
// fails with a conflict instead of storing a second row. A zero Timestamp
// defaults to the insertion time.
func (repo *ActivityDB) Append(ctx context.Context, activity *model.Activity) error {
	now := time.Now()
	if activity.ID == "" {
		activity.ID = xid.New().String()
	}
	activity.CreatedAt = now
	if activity.Timestamp.IsZero() {
		activity.Timestamp = now
	}

	_, err := repo.conn.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, type, title, details, timestamp, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		activity.Type,
		activity.Title,
		activity.Details,
		activity.Timestamp,
		activity.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", fmt.Sprint(activity.UserID))
		}
		if isUniqueViolation(err) {
			return apperror.Conflict("activity", activity.ID)
		}
		return fmt.Errorf("sqlite: appending activity for user %d: %w", activity.UserID, err)
	}

	return nil
}

// ListByUser returns every activity of the user in insertion order.
// An unknown user simply has no history.
func (repo *ActivityDB) ListByUser(ctx context.Context, userID int64) ([]model.Activity, error) {
	rows, err := repo.conn.QueryContext(ctx,
		`SELECT id, user_id, type, title, details, timestamp, created_at
		 FROM activities
		 WHERE user_id = ?
		 ORDER BY rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activities for user %d: %w", userID, err)
	}
	defer rows.Close()

	activities := make([]model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Title,
			&a.Details,
			&a.Timestamp,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating activities: %w", err)
	}

	return activities, nil
}
