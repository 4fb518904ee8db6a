package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/repository"
)

const (
	MaxActivityTitleLength   = 200
	MaxActivityDetailsLength = 2000
	MaxActivityTypeLength    = 64
)

// TrackActivityInput is what a client sends to record an event.
// The timestamp is always assigned by the server.
type TrackActivityInput struct {
	Type    model.ActivityType
	Title   string
	Details string
}

// ActivityService records and lists user activity.
type ActivityService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	now        func() time.Time
	logger     *slog.Logger
}

func NewActivityService(users repository.UserRepository, activities repository.ActivityRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		users:      users,
		activities: activities,
		now:        time.Now,
		logger:     logger,
	}
}

// Track appends an activity to the user's history, stamped with the
// current time.
func (s *ActivityService) Track(ctx context.Context, userID int64, in TrackActivityInput) (*model.Activity, error) {
	activityType := model.ActivityType(strings.TrimSpace(string(in.Type)))
	if activityType == "" {
		return nil, apperror.ValidationFailed("type", "activity type is required")
	}
	if len(activityType) > MaxActivityTypeLength {
		return nil, apperror.ValidationFailed("type",
			fmt.Sprintf("activity type must be %d characters or less", MaxActivityTypeLength))
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "activity title is required")
	}
	if len(title) > MaxActivityTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("activity title must be %d characters or less", MaxActivityTitleLength))
	}
	if len(in.Details) > MaxActivityDetailsLength {
		return nil, apperror.ValidationFailed("details",
			fmt.Sprintf("activity details must be %d characters or less", MaxActivityDetailsLength))
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	activity := &model.Activity{
		UserID:    userID,
		Type:      activityType,
		Title:     title,
		Details:   in.Details,
		Timestamp: s.now(),
	}
	if err := s.activities.Append(ctx, activity); err != nil {
		return nil, fmt.Errorf("tracking activity for user %d: %w", userID, err)
	}

	s.logger.Debug("activity tracked",
		slog.Int64("userID", userID),
		slog.String("type", string(activity.Type)),
	)
	return activity, nil
}

// List returns the user's history in the order it was recorded.
func (s *ActivityService) List(ctx context.Context, userID int64) ([]model.Activity, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	activities, err := s.activities.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities for user %d: %w", userID, err)
	}
	return activities, nil
}
