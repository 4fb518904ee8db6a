package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/user-reports/internal/model"
	"github.com/sakif/user-reports/internal/service"
)

// UserHandler serves the user directory under /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

// updateUserRequest lists the only fields a client may change. Relations or
// computed fields sent along (activities, reports, summary) are dropped by
// the decoder.
type updateUserRequest struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Role     *model.Role `json:"role"`
	Password *string     `json:"password"`
}

// HandleList searches the directory.
//
// HTTP: GET /api/users?search=&skip=&take=&orderBy=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		writeError(w, err)
		return
	}
	take, err := queryInt(r, "take")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.List(r.Context(), service.ListUsersInput{
		Search:  r.URL.Query().Get("search"),
		OrderBy: r.URL.Query().Get("orderBy"),
		Skip:    skip,
		Take:    take,
	})
	if err != nil {
		h.logFailure("list users", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleCreate adds a user. HTTP: POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		h.logFailure("create user", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns one user. HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate changes name, email, role or password.
// HTTP: PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateUserRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		h.logFailure("update user", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user and answers with the deleted record.
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Delete(r.Context(), id)
	if err != nil {
		h.logFailure("delete user", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// logFailure logs only errors that are not the client's fault.
func (h *UserHandler) logFailure(op string, err error) {
	if status, _ := statusOf(err); status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.String("error", err.Error()))
	}
}
