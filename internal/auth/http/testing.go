package http

import (
	"net/http"

	"github.com/plumeworks/plume/internal/auth/service"
)

// TestingHandler serves DELETE /testing/all-data for end-to-end suites.
// The route is only registered when the testing surface is enabled in
// config.
type TestingHandler struct {
	TestingService *service.TestingService
}

func (h *TestingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.TestingService.DropAllData(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
