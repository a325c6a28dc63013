package http

import (
	"net/http"
	"time"

	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/pkg/httpx"
)

// refreshCookieName is the cookie carrying the refresh token. Scoped to
// /auth so it only travels with the session endpoints.
const refreshCookieName = "refreshToken"

// AuthHandler serves the session endpoints: login, refresh rotation,
// logout, and the authenticated-user probe.
type AuthHandler struct {
	AuthService *service.AuthService
	RefreshTTL  time.Duration
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type meResponse struct {
	Email  string `json:"email"`
	Login  string `json:"login"`
	UserID string `json:"userId"`
}

// HandleLogin serves POST /auth/login. The access token goes in the body;
// the refresh token rides an HttpOnly cookie so scripts never see it.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// HandleRefresh serves POST /auth/refresh-token. The presented cookie is
// consumed whatever happens; on success the response carries its
// replacement.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.AuthService.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// HandleLogout serves POST /auth/logout: consumes the refresh token and
// drops the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), refreshTokenFromRequest(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe serves GET /auth/me for a bearer access token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.AuthenticatedUser(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		Email:  user.Email,
		Login:  user.Login,
		UserID: user.ID,
	})
}

func refreshTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(h.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
