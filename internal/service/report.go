package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/report"
	"github.com/sakif/user-reports/internal/repository"
)

const (
	// ReportTitle is the ledger title of every generated report.
	ReportTitle = "User report"
	// DownloadActivityTitle is the title of the PDF_DOWNLOAD activity
	// recorded after each generation.
	DownloadActivityTitle = "Report generated"

	DefaultWriteRetries = 3
	DefaultWriteBackoff = 50 * time.Millisecond
)

// ReportService generates usage reports and keeps the ledger of them.
//
// GENERATE FLOW:
//  1. load the user (NotFound if absent)
//  2. load the full activity history
//  3. compose, render and encode the document
//  4. record a PDF_DOWNLOAD activity and a ledger entry, concurrently
//
// Step 3 failing means neither write happens. In step 4 each write is retried
// on its own; if one still fails the other is not rolled back and both
// outcomes are reported together.
type ReportService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	reports    repository.ReportRepository
	logger     *slog.Logger
	pipeline   Pipeline

	retries uint64
	backoff time.Duration
	now     func() time.Time
}

// Pipeline turns a user and their history into the report's data URI.
// report.Generate is the production pipeline.
type Pipeline func(user *model.User, history []model.Activity) (string, error)

// ReportOption configures a ReportService.
type ReportOption func(*ReportService)

// WithWriteRetry sets how often a failed write is retried and the initial
// exponential backoff between attempts.
func WithWriteRetry(retries uint64, backoff time.Duration) ReportOption {
	return func(s *ReportService) {
		s.retries = retries
		s.backoff = backoff
	}
}

// WithPipeline replaces the compose, render and encode step.
func WithPipeline(p Pipeline) ReportOption {
	return func(s *ReportService) {
		s.pipeline = p
	}
}

func NewReportService(
	users repository.UserRepository,
	activities repository.ActivityRepository,
	reports repository.ReportRepository,
	logger *slog.Logger,
	opts ...ReportOption,
) *ReportService {
	s := &ReportService{
		users:      users,
		activities: activities,
		reports:    reports,
		logger:     logger,
		pipeline:   report.Generate,
		retries:    DefaultWriteRetries,
		backoff:    DefaultWriteBackoff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces the user's report and returns the ledger entry, whose
// URL is the data URI of the PDF.
func (s *ReportService) Generate(ctx context.Context, userID int64) (*model.Report, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.activities.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history of user %d: %w", userID, err)
	}

	uri, err := s.pipeline(user, history)
	if err != nil {
		s.logger.Error("report generation failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	download := &model.Activity{
		UserID:    userID,
		Type:      model.ActivityPDFDownload,
		Title:     DownloadActivityTitle,
		Details:   fmt.Sprintf("User report generated for %s", user.Name),
		Timestamp: s.now(),
	}
	entry := &model.Report{
		UserID: userID,
		Title:  ReportTitle,
		URL:    uri,
	}

	var (
		wg                     sync.WaitGroup
		activityErr, ledgerErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		activityErr = s.withRetry(ctx, func(ctx context.Context) error {
			return s.activities.Append(ctx, download)
		})
	}()
	go func() {
		defer wg.Done()
		ledgerErr = s.withRetry(ctx, func(ctx context.Context) error {
			return s.reports.Append(ctx, entry)
		})
	}()
	wg.Wait()

	if activityErr != nil {
		activityErr = fmt.Errorf("recording download activity: %w", activityErr)
	}
	if ledgerErr != nil {
		ledgerErr = fmt.Errorf("recording report ledger entry: %w", ledgerErr)
	}
	if err := errors.Join(activityErr, ledgerErr); err != nil {
		s.logger.Error("report generated but not fully recorded",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("report generated",
		slog.Int64("userID", userID),
		slog.String("reportID", entry.ID),
		slog.Int("activities", len(history)),
		slog.Int("bytes", len(uri)),
	)
	return entry, nil
}

// List returns the ledger entries of the user, oldest first.
func (s *ReportService) List(ctx context.Context, userID int64) ([]model.Report, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing reports for user %d: %w", userID, err)
	}
	return reports, nil
}

// withRetry runs write until it succeeds, fails permanently, or runs out of
// attempts. Domain errors (missing user, bad input, conflicts) are permanent.
//
// The stores keep the ID they assign on the first attempt, so a conflict on a
// later attempt means an earlier one was committed after all.
func (s *ReportService) withRetry(ctx context.Context, write func(context.Context) error) error {
	b := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := write(ctx)
		if attempt > 1 && errors.Is(err, apperror.ErrConflict) {
			return nil
		}
		if err == nil || isPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func isPermanent(err error) bool {
	return errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
