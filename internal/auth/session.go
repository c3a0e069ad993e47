package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/models"
	"github.com/taskify-app/taskify-be/internal/services"
)

// CookieName is the fixed name of the session cookie. The cookie value is the
// opaque session id; the client never interprets it.
const CookieName = "taskify-session-id"

type contextKey string

const userContextKey = contextKey("authUser")

// SetSessionCookie attaches the session cookie to the response. secure should
// be true in a production-classified environment.
func SetSessionCookie(w http.ResponseWriter, session models.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// ClearSessionCookie emits a cookie-clearing directive with the same
// attributes and an immediate expiry.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// SessionIDFromRequest returns the raw session id carried by the request, or
// the empty string when no cookie is present.
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// UserFromContext returns the identity resolved for the request, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// Resolver builds the per-request identity: it reads the session cookie,
// resolves it against the session store and attaches the owning user to the
// request context. Requests without a valid session pass through with no
// identity; rejection is RequireUser's job.
func Resolver(sessions services.SessionServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Resolve(sessionID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to resolve session")
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser is the single authentication gate: it rejects requests whose
// identity was not resolved, before the operation body runs.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			apperr.Write(w, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
