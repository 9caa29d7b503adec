package http

import (
	"log/slog"
	"net/http"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/httputil"
)

// AuthHandler serves the admin login stub used by the dashboard.
type AuthHandler struct {
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// LoginRequest is the JSON request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user object echoed back by the login stub.
type LoginUser struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Login handles POST /api/auth/login. Credentials are not checked; every
// well-formed request is answered as an admin login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		if err := httputil.DecodeJSON(w, r, &req, 1<<20); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}

	h.logger.InfoContext(r.Context(), "admin login", slog.String("email", req.Email))

	httputil.WriteSuccess(w, http.StatusOK, "Login successful", httputil.Payload{
		"user": LoginUser{Email: req.Email, Role: "admin"},
	})
}
