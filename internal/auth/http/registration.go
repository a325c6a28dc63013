package http

import (
	"net/http"

	"github.com/plumeworks/plume/internal/auth/service"
)

// RegistrationHandler serves the self-signup endpoints: registration,
// confirmation, and confirmation-email resending.
type RegistrationHandler struct {
	AuthService *service.AuthService
}

type registrationRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmationRequest struct {
	Code string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

// HandleRegister serves POST /auth/registration.
func (h *RegistrationHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if msgs := validateCredentialsInput(req.Login, req.Email, req.Password); len(msgs) > 0 {
		writeFieldErrors(w, msgs)
		return
	}

	if err := h.AuthService.Register(r.Context(), req.Login, req.Email, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleConfirm serves POST /auth/registration-confirmation.
func (h *RegistrationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Code == "" {
		writeFieldErrors(w, []ErrorMessage{{Message: "Code is required", Field: "code"}})
		return
	}

	if err := h.AuthService.ConfirmRegistration(r.Context(), req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResend serves POST /auth/registration-email-resending.
func (h *RegistrationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if m := validateEmail(req.Email); m != nil {
		writeFieldErrors(w, []ErrorMessage{*m})
		return
	}

	if err := h.AuthService.ResendConfirmation(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
