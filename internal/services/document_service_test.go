package services

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"testing"

	"docmanager/internal/apperr"
	"docmanager/internal/auth"
	"docmanager/internal/dto"
	"docmanager/internal/models"
	"docmanager/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDocumentService(t *testing.T) (*DocumentService, *gorm.DB, *storage.Store) {
	t.Helper()
	db := newTestDB(t)
	store := newTestStore(t)
	return NewDocumentService(db, store, NewTagService(db), nil), db, store
}

// uploadFile builds a real multipart file header the way Fiber hands one to
// the service.
func uploadFile(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestCreateDocumentWithTags(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	doc, err := svc.Create(p, &dto.CreateDocumentRequest{
		Title:        "Q3 Invoice",
		Category:     "finance",
		DocumentDate: "2026-07-15",
		Tags:         []string{" Invoice ", "2026", "invoice"},
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, doc.UserID)
	require.Len(t, doc.Tags, 2)
	assert.Equal(t, "invoice", doc.Tags[0].Name)
	assert.Equal(t, "2026", doc.Tags[1].Name)
	require.NotNil(t, doc.DocumentDate)
	assert.Equal(t, "2026-07-15", doc.DocumentDate.Format("2006-01-02"))
}

func TestCreateDocumentInvalidDate(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")

	_, err := svc.Create(auth.PrincipalFromUser(user), &dto.CreateDocumentRequest{
		Title:        "bad date",
		DocumentDate: "15.07.2026",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetHidesOtherUsersDocuments(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	admin := createTestUser(t, db, "root", models.RoleUser, models.RoleAdmin)

	doc := createTestDocument(t, db, alice.ID, "private")

	got, err := svc.Get(auth.PrincipalFromUser(alice), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)

	// Bob sees not-found, not forbidden.
	_, err = svc.Get(auth.PrincipalFromUser(bob), doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Get(auth.PrincipalFromUser(admin), doc.ID)
	assert.NoError(t, err)

	_, err = svc.Get(auth.PrincipalFromUser(alice), 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateTagSemantics(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	doc, err := svc.Create(p, &dto.CreateDocumentRequest{
		Title: "doc",
		Tags:  []string{"keep", "drop"},
	})
	require.NoError(t, err)

	// Absent tags field leaves the set untouched.
	updated, err := svc.Update(p, doc.ID, &dto.UpdateDocumentRequest{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	reloaded, err := svc.Get(p, doc.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Tags, 2)

	// A new set replaces the old one.
	newTags := []string{"keep", "added"}
	_, err = svc.Update(p, doc.ID, &dto.UpdateDocumentRequest{Title: "renamed", Tags: &newTags})
	require.NoError(t, err)
	reloaded, err = svc.Get(p, doc.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(reloaded.Tags))
	for _, tag := range reloaded.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"keep", "added"}, names)

	// An explicit empty set clears every association.
	empty := []string{}
	_, err = svc.Update(p, doc.ID, &dto.UpdateDocumentRequest{Title: "renamed", Tags: &empty})
	require.NoError(t, err)
	reloaded, err = svc.Get(p, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Tags)
}

func TestUpdateRespectsOwnership(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	doc := createTestDocument(t, db, alice.ID, "private")

	_, err := svc.Update(auth.PrincipalFromUser(bob), doc.ID, &dto.UpdateDocumentRequest{Title: "stolen"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteKeepsTagRows(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	doc, err := svc.Create(p, &dto.CreateDocumentRequest{Title: "doc", Tags: []string{"survivor"}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p, doc.ID))

	_, err = svc.Get(p, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// The tag outlives its last document; only the unused sweep removes it.
	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "survivor").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListScopesToOwner(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	admin := createTestUser(t, db, "root", models.RoleUser, models.RoleAdmin)

	createTestDocument(t, db, alice.ID, "a1")
	createTestDocument(t, db, alice.ID, "a2")
	createTestDocument(t, db, bob.ID, "b1")

	docs, total, err := svc.List(auth.PrincipalFromUser(alice), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)

	docs, total, err = svc.List(auth.PrincipalFromUser(admin), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, docs, 3)

	// Pagination still reports the full count.
	docs, total, err = svc.List(auth.PrincipalFromUser(alice), "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 1)
}

func TestListFiltersByCategory(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	_, err := svc.Create(p, &dto.CreateDocumentRequest{Title: "inv", Category: "finance"})
	require.NoError(t, err)
	_, err = svc.Create(p, &dto.CreateDocumentRequest{Title: "memo", Category: "misc"})
	require.NoError(t, err)

	docs, total, err := svc.List(p, "finance", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, "inv", docs[0].Title)
}

func TestSearchByTitle(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	createTestDocument(t, db, alice.ID, "Quarterly Report")
	createTestDocument(t, db, alice.ID, "shopping list")
	createTestDocument(t, db, bob.ID, "Bob's Report")

	docs, total, err := svc.SearchByTitle(auth.PrincipalFromUser(alice), "report", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Quarterly Report", docs[0].Title)
}

func TestStats(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	require.NoError(t, db.Create(&models.Document{Title: "a", UserID: user.ID, FilePath: "a.bin", FileSize: 100}).Error)
	require.NoError(t, db.Create(&models.Document{Title: "b", UserID: user.ID, FilePath: "b.bin", FileSize: 250}).Error)
	require.NoError(t, db.Create(&models.Document{Title: "c", UserID: user.ID}).Error)

	stats, err := svc.Stats(p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalDocuments)
	assert.Equal(t, int64(350), stats.TotalFileSize)
}

func TestStatsEmpty(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")

	stats, err := svc.Stats(auth.PrincipalFromUser(user))
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalDocuments)
	assert.Equal(t, int64(0), stats.TotalFileSize)
}

func TestUploadAndDownload(t *testing.T) {
	svc, db, store := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	fh := uploadFile(t, "contract.pdf", "pdf-bytes")
	doc, err := svc.Upload(p, fh, &dto.CreateDocumentRequest{Tags: []string{"legal"}})
	require.NoError(t, err)

	// Title falls back to the file name without its extension.
	assert.Equal(t, "contract", doc.Title)
	assert.Equal(t, int64(len("pdf-bytes")), doc.FileSize)
	assert.True(t, doc.HasFile())

	blob, err := store.Open(doc.FilePath)
	require.NoError(t, err)
	blob.Close()

	got, f, err := svc.Download(p, doc.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, doc.ID, got.ID)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestDownloadWithoutFile(t *testing.T) {
	svc, db, _ := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	doc := createTestDocument(t, db, user.ID, "metadata only")

	_, _, err := svc.Download(auth.PrincipalFromUser(user), doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteRemovesBlob(t *testing.T) {
	svc, db, store := newDocumentService(t)
	user := createTestUser(t, db, "alice")
	p := auth.PrincipalFromUser(user)

	fh := uploadFile(t, "temp.txt", "bytes")
	doc, err := svc.Upload(p, fh, &dto.CreateDocumentRequest{Title: "temp"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p, doc.ID))

	_, err = store.Open(doc.FilePath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
