package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-reports/internal/model"
)

func TestActivityHandler_Track(t *testing.T) {
	m := newRepos()
	m.users.On("GetByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)
	m.activities.On("Append", mock.Anything, mock.MatchedBy(func(a *model.Activity) bool {
		return a.Type == model.ActivityLogin && a.Title == "User logged in" &&
			a.Timestamp.After(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	// A client timestamp is ignored; the server stamps the event.
	rr := do(t, m.router(), http.MethodPost, "/api/users/1/activity",
		`{"type":"LOGIN","title":"User logged in","details":"web","timestamp":"2000-01-01T00:00:00Z"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	got := decode[model.Activity](t, rr)
	assert.Equal(t, "web", got.Details)
	m.activities.AssertExpectations(t)
}

func TestActivityHandler_Track_Invalid(t *testing.T) {
	rr := do(t, newRepos().router(), http.MethodPost, "/api/users/1/activity", `{"title":"no type"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestActivityHandler_List(t *testing.T) {
	m := newRepos()
	m.users.On("GetByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)
	m.activities.On("ListByUser", mock.Anything, int64(1)).Return([]model.Activity{
		{ID: "a1", Type: model.ActivityLogin},
		{ID: "a2", Type: "CUSTOM"},
	}, nil)

	rr := do(t, m.router(), http.MethodGet, "/api/users/1/activities", "")

	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[[]model.Activity](t, rr)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, model.ActivityType("CUSTOM"), got[1].Type)
}
