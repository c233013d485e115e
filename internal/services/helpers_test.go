package services

import (
	"testing"
	"time"

	"docmanager/internal/auth"
	"docmanager/internal/models"
	"docmanager/internal/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database per test. The pool is pinned
// to one connection so every query sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Document{}, &models.Tag{}))
	return db
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func createTestUser(t *testing.T, db *gorm.DB, username string, roles ...models.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{
		Username:              username,
		Email:                 username + "@example.com",
		Password:              hash,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Roles:                 roles,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestDocument(t *testing.T, db *gorm.DB, userID uint, title string, tags ...models.Tag) *models.Document {
	t.Helper()
	doc := &models.Document{Title: title, UserID: userID, Tags: tags}
	require.NoError(t, db.Create(doc).Error)
	return doc
}
