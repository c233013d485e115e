package services

import (
	"path/filepath"
	"testing"

	"docmanager/internal/apperr"
	"docmanager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestReconcileCreatesAndReuses(t *testing.T) {
	svc := NewTagService(newTestDB(t))

	tags, err := svc.Reconcile([]string{" Invoice ", "invoice", "Tax", ""})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "invoice", tags[0].Name)
	assert.Equal(t, "tax", tags[1].Name)
	invoiceID := tags[0].ID

	// A later request referencing an existing name maps to the same row.
	tags, err = svc.Reconcile([]string{"INVOICE", "receipt"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, invoiceID, tags[0].ID)
	assert.Equal(t, "receipt", tags[1].Name)

	all, err := svc.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReconcileEmptyInput(t *testing.T) {
	svc := NewTagService(newTestDB(t))

	tags, err := svc.Reconcile(nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = svc.Reconcile([]string{"", "   "})
	require.NoError(t, err)
	assert.Empty(t, tags)
}

// TestReconcileRecoversFromInsertRace loses the insert race on purpose: a
// rival connection commits the same name after Reconcile's lookup but before
// its insert. The unique index rejects the insert and Reconcile must recover
// by adopting the committed row.
func TestReconcileRecoversFromInsertRace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.db")
	open := func() *gorm.DB {
		// No wrapping transaction, so the rival's commit lands between this
		// session's lookup and insert instead of deadlocking on the file.
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			TranslateError:         true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.SetMaxOpenConns(1)
		return db
	}

	db := open()
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Document{}, &models.Tag{}))
	rival := open()

	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_insert", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Tag); !ok {
			return
		}
		raced = true
		require.NoError(t, rival.Create(&models.Tag{Name: "contested"}).Error)
	})
	require.NoError(t, err)

	svc := NewTagService(db)
	tags, err := svc.Reconcile([]string{"contested"})
	require.NoError(t, err)
	require.True(t, raced)
	require.Len(t, tags, 1)

	// Exactly one row survives and Reconcile returned the rival's.
	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var winner models.Tag
	require.NoError(t, rival.Where("name = ?", "contested").First(&winner).Error)
	assert.Equal(t, winner.ID, tags[0].ID)
	assert.Equal(t, "contested", tags[0].Name)
}

func TestCreateConflictsOnExistingName(t *testing.T) {
	svc := NewTagService(newTestDB(t))

	tag, err := svc.Create("Invoice")
	require.NoError(t, err)
	assert.Equal(t, "invoice", tag.Name)

	_, err = svc.Create(" INVOICE ")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create("   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRename(t *testing.T) {
	svc := NewTagService(newTestDB(t))

	a, err := svc.Create("alpha")
	require.NoError(t, err)
	_, err = svc.Create("beta")
	require.NoError(t, err)

	renamed, err := svc.Rename(a.ID, " Gamma ")
	require.NoError(t, err)
	assert.Equal(t, "gamma", renamed.Name)

	_, err = svc.Rename(a.ID, "beta")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Renaming to the current name is a no-op, not a conflict.
	same, err := svc.Rename(a.ID, "GAMMA")
	require.NoError(t, err)
	assert.Equal(t, "gamma", same.Name)

	_, err = svc.Rename(9999, "delta")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLookupsNormalize(t *testing.T) {
	svc := NewTagService(newTestDB(t))
	_, err := svc.Create("invoice")
	require.NoError(t, err)

	tag, err := svc.GetByName("  INVOICE  ")
	require.NoError(t, err)
	assert.Equal(t, "invoice", tag.Name)

	exists, err := svc.ExistsByName("Invoice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.ExistsByName("missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.GetByName("missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc := NewTagService(newTestDB(t))
	for _, name := range []string{"invoice", "invoice-2024", "tax"} {
		_, err := svc.Create(name)
		require.NoError(t, err)
	}

	tags, err := svc.Search("INV")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "invoice", tags[0].Name)
	assert.Equal(t, "invoice-2024", tags[1].Name)
}

func TestGetByUserID(t *testing.T) {
	db := newTestDB(t)
	svc := NewTagService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	aliceTags, err := svc.Reconcile([]string{"work", "shared"})
	require.NoError(t, err)
	bobTags, err := svc.Reconcile([]string{"personal", "shared"})
	require.NoError(t, err)

	createTestDocument(t, db, alice.ID, "alice doc", aliceTags...)
	createTestDocument(t, db, bob.ID, "bob doc", bobTags...)

	tags, err := svc.GetByUserID(alice.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "shared", tags[0].Name)
	assert.Equal(t, "work", tags[1].Name)
}

func TestDeleteClearsAssociations(t *testing.T) {
	db := newTestDB(t)
	svc := NewTagService(db)

	user := createTestUser(t, db, "alice")
	tags, err := svc.Reconcile([]string{"work"})
	require.NoError(t, err)
	doc := createTestDocument(t, db, user.ID, "doc", tags...)

	require.NoError(t, svc.Delete(tags[0].ID))

	// The document survives with the tag detached.
	var reloaded models.Document
	require.NoError(t, db.Preload("Tags").First(&reloaded, doc.ID).Error)
	assert.Empty(t, reloaded.Tags)

	assert.ErrorIs(t, svc.Delete(tags[0].ID), apperr.ErrNotFound)
}

func TestDeleteUnusedAndStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewTagService(db)

	user := createTestUser(t, db, "alice")
	used, err := svc.Reconcile([]string{"used"})
	require.NoError(t, err)
	createTestDocument(t, db, user.ID, "doc", used...)

	_, err = svc.Create("orphan-1")
	require.NoError(t, err)
	_, err = svc.Create("orphan-2")
	require.NoError(t, err)

	total, usedCount, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), usedCount)

	deleted, err := svc.DeleteUnused()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	all, err := svc.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "used", all[0].Name)
}
