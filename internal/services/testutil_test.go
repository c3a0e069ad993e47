package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskify-app/taskify-be/internal/database"
	"github.com/taskify-app/taskify-be/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func registerTestUser(t *testing.T, db *sql.DB, email string) models.User {
	t.Helper()
	user, err := NewUserService(db).Register(email, "secret1", "Test User")
	require.NoError(t, err)
	return user
}
