package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/service"
)

// ActivityHandler records and lists a user's activity.
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *slog.Logger
}

func NewActivityHandler(activities *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

type trackActivityRequest struct {
	Type    model.ActivityType `json:"type"`
	Title   string             `json:"title"`
	Details string             `json:"details"`
}

// HandleTrack appends an activity. Any client-supplied timestamp is ignored.
//
// HTTP: POST /api/users/{id}/activity
func (h *ActivityHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req trackActivityRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	activity, err := h.activities.Track(r.Context(), id, service.TrackActivityInput{
		Type:    req.Type,
		Title:   req.Title,
		Details: req.Details,
	})
	if err != nil {
		if status, _ := statusOf(err); status >= http.StatusInternalServerError {
			h.logger.Error("track activity failed", slog.Int64("userID", id), slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, activity)
}

// HandleList returns the user's history in recorded order.
//
// HTTP: GET /api/users/{id}/activities
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	activities, err := h.activities.List(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}
