package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
)

func TestActivityAppend_SetsIDAndTimes(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@x.com")

	a := &model.Activity{UserID: user.ID, Type: model.ActivityLogin, Title: "login"}
	require.NoError(t, db.Activities().Append(context.Background(), a))

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.False(t, a.Timestamp.IsZero(), "zero Timestamp should default to now")
}

func TestActivityAppend_KeepsEventTime(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@x.com")
	eventTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &model.Activity{UserID: user.ID, Type: model.ActivityLogin, Timestamp: eventTime}
	require.NoError(t, db.Activities().Append(context.Background(), a))

	got, err := db.Activities().ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Timestamp.Equal(eventTime), "Timestamp = %v, want %v", got[0].Timestamp, eventTime)
}

func TestActivityAppend_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.Activities().Append(context.Background(), &model.Activity{UserID: 12345, Type: model.ActivityLogin})
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v, want ErrNotFound", err)
}

func TestActivityListByUser_InsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ada := createTestUser(t, db, "Ada", "ada@x.com")
	bob := createTestUser(t, db, "Bob", "bob@x.com")

	// Event times deliberately run backwards: the store must not re-sort.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	types := []model.ActivityType{model.ActivityLogin, model.ActivityPDFDownload, "LOGOUT", model.ActivityLogin}
	for i, typ := range types {
		a := &model.Activity{UserID: ada.ID, Type: typ, Details: string(rune('a' + i)), Timestamp: base.Add(-time.Duration(i) * time.Hour)}
		require.NoError(t, db.Activities().Append(ctx, a))
	}
	require.NoError(t, db.Activities().Append(ctx, &model.Activity{UserID: bob.ID, Type: model.ActivityLogin}))

	got, err := db.Activities().ListByUser(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, got, len(types))
	for i, a := range got {
		assert.Equal(t, types[i], a.Type)
		assert.Equal(t, string(rune('a'+i)), a.Details)
		assert.Equal(t, ada.ID, a.UserID)
	}
}

func TestActivityListByUser_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.Activities().ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestActivityAppend_KeepsPresetID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@x.com")

	a := &model.Activity{ID: "d2a1c3f0k7v9b4s8e6n0", UserID: user.ID, Type: model.ActivityLogin}
	require.NoError(t, db.Activities().Append(ctx, a))
	assert.Equal(t, "d2a1c3f0k7v9b4s8e6n0", a.ID)

	got, err := db.Activities().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d2a1c3f0k7v9b4s8e6n0", got[0].ID)
}

func TestActivityAppend_RepeatedValueIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada", "ada@x.com")

	a := &model.Activity{UserID: user.ID, Type: model.ActivityPDFDownload, Title: "Report generated"}
	require.NoError(t, db.Activities().Append(ctx, a))
	firstID := a.ID

	err := db.Activities().Append(ctx, a)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "error = %v, want ErrConflict", err)
	assert.Equal(t, firstID, a.ID)

	got, err := db.Activities().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1, "a repeated append must not store a second row")
}
