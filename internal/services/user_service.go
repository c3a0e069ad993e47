package services

import (
	"database/sql"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/taskify-app/taskify-be/internal/apperr"
	"github.com/taskify-app/taskify-be/internal/database"
	"github.com/taskify-app/taskify-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 12

const minPasswordLen = 6

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(email, password, name string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetByID(id string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register validates the input, hashes the password and creates the user.
// A duplicate email fails with a conflict error and creates no row.
func (s *UserService) Register(email, password, name string) (models.User, error) {
	if err := validateRegistration(email, password, name); err != nil {
		return models.User{}, err
	}

	// Friendly pre-check; the UNIQUE constraint below is the source of truth.
	var exists int
	err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&exists)
	if err != nil {
		return models.User{}, apperr.Persistence(err)
	}
	if exists > 0 {
		return models.User{}, apperr.Conflict("User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, apperr.Persistence(err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.Name, user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("User already exists")
		}
		return models.User{}, apperr.Persistence(err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. The error is the same for an
// unknown email and a wrong password, to avoid account enumeration.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.Unauthorized("Invalid credentials")
		}
		return models.User{}, apperr.Persistence(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.Unauthorized("Invalid credentials")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, name, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("User not found")
		}
		return models.User{}, apperr.Persistence(err)
	}
	return user, nil
}

func validateRegistration(email, password, name string) error {
	fields := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < minPasswordLen {
		fields["password"] = "must be at least 6 characters"
	}
	if name == "" {
		fields["name"] = "must not be empty"
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid registration data", fields)
	}
	return nil
}
