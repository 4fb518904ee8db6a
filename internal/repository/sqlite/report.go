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

var _ repository.ReportRepository = (*ReportDB)(nil)

// ReportDB is the ledger of generated reports.
type ReportDB struct {
	conn *sql.DB
}

// Reports returns the report ledger backed by db.
func (db *DB) Reports() *ReportDB {
	return &ReportDB{conn: db.conn}
}

// Append records a generated report and fills in its CreatedAt. Like
// ActivityDB.Append it only assigns an ID when none is set; a repeated ID
// is a conflict.
func (repo *ReportDB) Append(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = xid.New().String()
	}
	report.CreatedAt = time.Now()

	_, err := repo.conn.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, title, url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		report.ID,
		report.UserID,
		report.Title,
		report.URL,
		report.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", fmt.Sprint(report.UserID))
		}
		if isUniqueViolation(err) {
			return apperror.Conflict("report", report.ID)
		}
		return fmt.Errorf("sqlite: appending report for user %d: %w", report.UserID, err)
	}

	return nil
}

// ListByUser returns the user's reports, oldest first.
func (repo *ReportDB) ListByUser(ctx context.Context, userID int64) ([]model.Report, error) {
	rows, err := repo.conn.QueryContext(ctx,
		`SELECT id, user_id, title, url, created_at
		 FROM reports
		 WHERE user_id = ?
		 ORDER BY rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reports for user %d: %w", userID, err)
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		var r model.Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.URL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reports: %w", err)
	}

	return reports, nil
}
