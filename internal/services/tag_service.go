package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docmanager/internal/apperr"
	"docmanager/internal/models"

	"gorm.io/gorm"
)

// TagService owns the canonical tag set. Tag rows are shared across users and
// documents; uniqueness is keyed on the normalized name.
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Reconcile maps free-text tag names to canonical tag rows, creating rows only
// for names that do not exist yet. Two concurrent callers proposing the same
// new name race on the insert; the loser hits the unique index and re-fetches
// the winner's row instead of failing the request. Runs outside any caller
// transaction so that a conflicting insert does not poison it.
func (s *TagService) Reconcile(names []string) ([]models.Tag, error) {
	normalized := normalizeTagNames(names)
	if len(normalized) == 0 {
		return nil, nil
	}

	var existing []models.Tag
	if err := s.db.Where("name IN ?", normalized).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("lookup tags: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Name] = true
	}

	tags := existing
	for _, name := range normalized {
		if have[name] {
			continue
		}
		tag := models.Tag{Name: name}
		if err := s.db.Create(&tag).Error; err != nil {
			if !isDuplicateKey(err) {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
			// Lost the race; the row exists now.
			if err := s.db.Where("name = ?", name).First(&tag).Error; err != nil {
				return nil, fmt.Errorf("refetch tag %q after conflict: %w", name, err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// normalizeTagNames trims, lowercases, drops empties and dedupes while keeping
// first-seen order.
func normalizeTagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := models.NormalizeTagName(name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (s *TagService) GetAll() ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.Order("name").Find(&tags).Error
	return tags, err
}

func (s *TagService) GetByID(id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) GetByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Where("name = ?", models.NormalizeTagName(name)).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) ExistsByName(name string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Tag{}).
		Where("name = ?", models.NormalizeTagName(name)).
		Count(&count).Error
	return count > 0, err
}

// Search matches tag names containing the query, case-insensitively.
func (s *TagService) Search(query string) ([]models.Tag, error) {
	var tags []models.Tag
	pattern := "%" + models.NormalizeTagName(query) + "%"
	err := s.db.Where("name LIKE ?", pattern).Order("name").Find(&tags).Error
	return tags, err
}

// GetByUserID lists the distinct tags used by a user's documents.
func (s *TagService) GetByUserID(userID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.
		Joins("JOIN document_tags ON document_tags.tag_id = tags.id").
		Joins("JOIN documents ON documents.id = document_tags.document_id").
		Where("documents.user_id = ?", userID).
		Distinct("tags.*").
		Order("tags.name").
		Find(&tags).Error
	return tags, err
}

// Create adds a tag explicitly; referencing an existing name is a conflict
// here, unlike Reconcile.
func (s *TagService) Create(name string) (*models.Tag, error) {
	normalized := models.NormalizeTagName(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: tag name is blank", apperr.ErrValidation)
	}

	tag := models.Tag{Name: normalized}
	if err := s.db.Create(&tag).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: tag %q", apperr.ErrConflict, normalized)
		}
		return nil, err
	}
	slog.Info("tag created", "tag", tag.Name)
	return &tag, nil
}

// Rename changes a tag's name, refusing names held by another tag.
func (s *TagService) Rename(id uint, newName string) (*models.Tag, error) {
	normalized := models.NormalizeTagName(newName)
	if normalized == "" {
		return nil, fmt.Errorf("%w: tag name is blank", apperr.ErrValidation)
	}

	tag, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tag.Name == normalized {
		return tag, nil
	}

	var count int64
	if err := s.db.Model(&models.Tag{}).Where("name = ? AND id <> ?", normalized, id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: tag %q", apperr.ErrConflict, normalized)
	}

	if err := s.db.Model(tag).Update("name", normalized).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: tag %q", apperr.ErrConflict, normalized)
		}
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag and its document associations.
func (s *TagService) Delete(id uint) error {
	tag, err := s.GetByID(id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(tag).Association("Documents").Clear(); err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

// DeleteUnused removes every tag with no document association at sweep time.
// Deliberately not consistent with concurrent document writes: a tag can be
// recreated right after the sweep by a new document referencing its name.
func (s *TagService) DeleteUnused() (int64, error) {
	result := s.db.
		Where("NOT EXISTS (SELECT 1 FROM document_tags WHERE document_tags.tag_id = tags.id)").
		Delete(&models.Tag{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("unused tags deleted", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (s *TagService) Stats() (total, used int64, err error) {
	if err = s.db.Model(&models.Tag{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = s.db.Model(&models.Tag{}).
		Where("EXISTS (SELECT 1 FROM document_tags WHERE document_tags.tag_id = tags.id)").
		Count(&used).Error
	return total, used, err
}

// isDuplicateKey covers both translated GORM errors and raw driver messages;
// sqlite in tests and postgres in production word them differently.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
