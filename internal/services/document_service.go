package services

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docmanager/internal/apperr"
	"docmanager/internal/auth"
	"docmanager/internal/authz"
	"docmanager/internal/dto"
	"docmanager/internal/events"
	"docmanager/internal/models"
	"docmanager/internal/storage"

	"gorm.io/gorm"
)

// DocumentService implements document CRUD under the ownership gate. Every
// read or mutation of a single document goes through the same fetch-then-
// authorize path, so a stranger's probe and a missing row are
// indistinguishable to the caller.
type DocumentService struct {
	db        *gorm.DB
	store     *storage.Store
	tags      *TagService
	publisher *events.Publisher
}

func NewDocumentService(db *gorm.DB, store *storage.Store, tags *TagService, publisher *events.Publisher) *DocumentService {
	return &DocumentService{db: db, store: store, tags: tags, publisher: publisher}
}

func (s *DocumentService) Create(p *auth.Principal, req *dto.CreateDocumentRequest) (*models.Document, error) {
	docDate, err := parseDocumentDate(req.DocumentDate)
	if err != nil {
		return nil, err
	}

	tags, err := s.tags.Reconcile(req.Tags)
	if err != nil {
		return nil, err
	}

	doc := models.Document{
		Title:         req.Title,
		Category:      req.Category,
		ExtractedText: req.ExtractedText,
		DocumentDate:  docDate,
		UserID:        p.ID,
		Tags:          tags,
	}
	if err := s.db.Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	slog.Info("document created", "document_id", doc.ID, "user_id", p.ID)
	s.publisher.Publish(events.Message{Event: events.DocumentCreated, UserID: p.ID, DocumentID: doc.ID, Title: doc.Title})
	return &doc, nil
}

// Upload stores the blob first and persists the record only when the write
// succeeded, so no document row ever points at a missing file. A failed
// record insert rolls the blob back.
func (s *DocumentService) Upload(p *auth.Principal, fileHeader *multipart.FileHeader, req *dto.CreateDocumentRequest) (*models.Document, error) {
	docDate, err := parseDocumentDate(req.DocumentDate)
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", apperr.ErrStorage, err)
	}
	defer src.Close()

	storedName, size, err := s.store.Save(src, fileHeader.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	title := req.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(fileHeader.Filename), filepath.Ext(fileHeader.Filename))
	}

	tags, err := s.tags.Reconcile(req.Tags)
	if err != nil {
		s.store.Delete(storedName)
		return nil, err
	}

	doc := models.Document{
		Title:         title,
		Category:      req.Category,
		FilePath:      storedName,
		FileType:      detectFileType(fileHeader),
		FileSize:      size,
		ExtractedText: req.ExtractedText,
		DocumentDate:  docDate,
		UserID:        p.ID,
		Tags:          tags,
	}
	if err := s.db.Create(&doc).Error; err != nil {
		s.store.Delete(storedName)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	slog.Info("document uploaded", "document_id", doc.ID, "user_id", p.ID, "size", size)
	s.publisher.Publish(events.Message{Event: events.DocumentCreated, UserID: p.ID, DocumentID: doc.ID, Title: doc.Title})
	return &doc, nil
}

// Get fetches a document visible to the principal. Rows owned by someone else
// surface as not-found.
func (s *DocumentService) Get(p *auth.Principal, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Preload("Tags").First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if err := authz.RequireResourceAccess(p, doc.UserID); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Download returns the document and its opened blob for streaming. The caller
// closes the file.
func (s *DocumentService) Download(p *auth.Principal, id uint) (*models.Document, *os.File, error) {
	doc, err := s.Get(p, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasFile() {
		return nil, nil, apperr.ErrNotFound
	}

	f, err := s.store.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return doc, f, nil
}

func (s *DocumentService) Update(p *auth.Principal, id uint, req *dto.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.Get(p, id)
	if err != nil {
		return nil, err
	}

	docDate, err := parseDocumentDate(req.DocumentDate)
	if err != nil {
		return nil, err
	}

	// Reconcile before the write transaction; a tag insert conflict must not
	// abort the document update.
	var newTags []models.Tag
	if req.Tags != nil {
		newTags, err = s.tags.Reconcile(*req.Tags)
		if err != nil {
			return nil, err
		}
	}

	doc.Title = req.Title
	doc.Category = req.Category
	doc.ExtractedText = req.ExtractedText
	doc.DocumentDate = docDate

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
			return err
		}
		if req.Tags != nil {
			if err := tx.Model(doc).Association("Tags").Replace(newTags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	if req.Tags != nil {
		doc.Tags = newTags
	}

	s.publisher.Publish(events.Message{Event: events.DocumentUpdated, UserID: doc.UserID, DocumentID: doc.ID, Title: doc.Title})
	return doc, nil
}

// Delete removes the record, its tag associations and the backing blob. Tags
// themselves survive even when this was their last document; only the
// explicit unused-tag sweep removes them.
func (s *DocumentService) Delete(p *auth.Principal, id uint) error {
	doc, err := s.Get(p, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(doc).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(doc).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if doc.HasFile() {
		if err := s.store.Delete(doc.FilePath); err != nil {
			// The record is gone; an orphaned blob is an operational issue,
			// not a caller error.
			slog.Error("failed to delete stored file", "document_id", doc.ID, "path", doc.FilePath, "error", err)
		}
	}

	slog.Info("document deleted", "document_id", doc.ID, "user_id", doc.UserID)
	s.publisher.Publish(events.Message{Event: events.DocumentDeleted, UserID: doc.UserID, DocumentID: doc.ID, Title: doc.Title})
	return nil
}

// List returns the principal's documents, newest first; admins see everyone's.
func (s *DocumentService) List(p *auth.Principal, category string, page, limit int) ([]models.Document, int64, error) {
	query := s.db.Model(&models.Document{}).Scopes(authz.OwnedBy(p))
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.Document
	err := query.Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&docs).Error
	return docs, total, err
}

// SearchByTitle is a case-insensitive substring match within the principal's
// visible documents.
func (s *DocumentService) SearchByTitle(p *auth.Principal, title string, page, limit int) ([]models.Document, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(title)) + "%"
	query := s.db.Model(&models.Document{}).
		Scopes(authz.OwnedBy(p)).
		Where("LOWER(title) LIKE ?", pattern)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.Document
	err := query.Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&docs).Error
	return docs, total, err
}

func (s *DocumentService) Stats(p *auth.Principal) (*dto.DocumentStatsResponse, error) {
	var stats dto.DocumentStatsResponse
	err := s.db.Model(&models.Document{}).
		Scopes(authz.OwnedBy(p)).
		Select("COUNT(*) AS total_documents, COALESCE(SUM(file_size), 0) AS total_file_size").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func parseDocumentDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: document_date must be YYYY-MM-DD", apperr.ErrValidation)
	}
	return &t, nil
}

func detectFileType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
