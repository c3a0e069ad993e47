package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/auth"
	"github.com/taskify-app/taskify-be/internal/models"
	"github.com/taskify-app/taskify-be/internal/services"
)

// AuthHandler handles HTTP requests for registration, login and session state.
type AuthHandler struct {
	users        services.UserServiceProvider
	sessions     services.SessionServiceProvider
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie controls the Secure
// flag on issued session cookies.
func NewAuthHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, secureCookie: secureCookie}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
}

// Register handles new user registration. On success a session is created and
// its cookie attached to the response.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body", nil))
		return
	}

	user, err := h.users.Register(payload.Email, payload.Password, payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		apperr.Write(w, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create session")
		apperr.Write(w, err)
		return
	}
	auth.SetSessionCookie(w, session, h.secureCookie)

	writeJSON(w, http.StatusCreated, authResponse{Success: true, User: user.Public()})
}

// Login handles user authentication and session creation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.Validation("Invalid request body", nil))
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		apperr.Write(w, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create session")
		apperr.Write(w, err)
		return
	}
	auth.SetSessionCookie(w, session, h.secureCookie)

	writeJSON(w, http.StatusOK, authResponse{Success: true, User: user.Public()})
}

// Me returns the public projection of the already-resolved identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user.Public(),
	})
}

// Logout destroys the caller's session and clears the cookie. Destroying an
// already-absent session succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := auth.SessionIDFromRequest(r); sessionID != "" {
		if err := h.sessions.Destroy(sessionID); err != nil {
			log.Error().Err(err).Msg("Failed to destroy session")
			apperr.Write(w, err)
			return
		}
	}
	auth.ClearSessionCookie(w, h.secureCookie)

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
