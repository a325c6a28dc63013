package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/pkg/httpx"
)

// UsersHandler serves the administrative user-management endpoints, gated
// by Basic auth at the router.
type UsersHandler struct {
	UserService *service.UserService
}

type createUserRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type userPageResponse struct {
	PagesCount int            `json:"pagesCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalCount int            `json:"totalCount"`
	Items      []userResponse `json:"items"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// HandleCreate serves POST /users. The created account is confirmed from
// the start.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if msgs := validateCredentialsInput(req.Login, req.Email, req.Password); len(msgs) > 0 {
		writeFieldErrors(w, msgs)
		return
	}

	user, err := h.UserService.CreateUser(r.Context(), req.Login, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleList serves GET /users?pageNumber=&pageSize=.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.UserService.ListUsers(r.Context(), page, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := userPageResponse{
		PagesCount: result.PagesCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		Items:      make([]userResponse, len(result.Items)),
	}
	for i, u := range result.Items {
		resp.Items[i] = toUserResponse(u)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete serves DELETE /users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
