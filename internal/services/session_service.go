package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/models"
)

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	Create(userID string) (models.Session, error)
	Resolve(sessionID string) (*models.User, error)
	Destroy(sessionID string) error
	DeleteExpired() (int64, error)
}

// SessionService manages database-backed sessions. Session state lives
// server-side so that logout and expiry are immediately authoritative; the
// cookie carries only the opaque session id.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionService creates a new SessionService with the given session lifetime.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

// Create persists a new session for the given user and returns it.
func (s *SessionService) Create(userID string) (models.Session, error) {
	now := time.Now().UTC()
	session := models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return models.Session{}, apperr.Persistence(err)
	}
	return session, nil
}

// Resolve looks up a session by id and loads its owning user. It returns
// (nil, nil) when the session does not exist or has expired; this is the sole
// authentication decision point.
func (s *SessionService) Resolve(sessionID string) (*models.User, error) {
	var (
		user      models.User
		expiresAt time.Time
	)
	row := s.db.QueryRow(`
		SELECT u.id, u.email, u.name, u.created_at, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sessionID)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Persistence(err)
	}

	// A session is valid iff the row exists and now is before its expiry.
	if !time.Now().UTC().Before(expiresAt) {
		return nil, nil
	}
	return &user, nil
}

// Destroy deletes the session row if present. Absence is not an error.
func (s *SessionService) Destroy(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// DeleteExpired removes session rows whose expiry has passed and returns the
// number deleted. Validity never depends on this; Resolve checks expiry itself.
func (s *SessionService) DeleteExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return res.RowsAffected()
}
