package auth

import (
	"net/http"
	"time"

	"github.com/redmonkez12/finance-tracker-api/internal/httputil"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body. Identifier is the username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SessionResponse is returned by register and login
type SessionResponse struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "User already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	session, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, toSessionResponse(session), http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with username and password and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("user logged in", "user_id", session.User.ID)

	httputil.RespondJSON(w, r, toSessionResponse(session), http.StatusOK)
}

// Logout handles user logout. Tokens are stateless, so the client discards its copy.
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	logging.GetLoggerFromContext(r.Context()).Info("user logged out", "user_id", userID)

	httputil.RespondJSON(w, r, MessageResponse{Message: "logged out"}, http.StatusOK)
}

// TokenIsValid confirms that the bearer token passed RequireAuth
// @Summary      Check token
// @Tags         auth
// @Produce      plain
// @Security     BearerAuth
// @Success      200 {string} string "Token is valid"
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /tokenIsValid [get]
func (h *Handler) TokenIsValid(w http.ResponseWriter, r *http.Request) {
	httputil.RespondText(w, "Token is valid", http.StatusOK)
}

// ChangePassword replaces the caller's password
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or wrong current password"
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, ErrMissingAuth)
		return
	}

	var req ChangePasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, MessageResponse{Message: "password updated"}, http.StatusOK)
}

func toSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		UserID:    s.User.ID,
		Username:  s.User.Username,
		Email:     s.User.Email,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
