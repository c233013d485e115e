package services

import (
	"errors"
	"fmt"
	"log/slog"

	"docmanager/internal/apperr"
	"docmanager/internal/auth"
	"docmanager/internal/authz"
	"docmanager/internal/dto"
	"docmanager/internal/models"
	"docmanager/internal/storage"

	"gorm.io/gorm"
)

// UserService is the administrative side of account management. Self-service
// flows (register, change-password) live in AuthService.
type UserService struct {
	db    *gorm.DB
	store *storage.Store
}

func NewUserService(db *gorm.DB, store *storage.Store) *UserService {
	return &UserService{db: db, store: store}
}

func (s *UserService) List(page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.Preload("Documents").
		Order("username").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Documents").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Documents").Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create provisions an account administratively, optionally with the admin
// role. Unlike registration it does not log the new user in.
func (s *UserService) Create(req *dto.CreateUserRequest) (*models.User, error) {
	taken, err := s.UsernameExists(req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
	}
	taken, err = s.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email is already in use", apperr.ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	roles := []models.Role{models.RoleUser}
	if req.Admin {
		roles = append(roles, models.RoleAdmin)
	}

	user := models.User{
		Username:              req.Username,
		Email:                 req.Email,
		Password:              hash,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		Roles:                 roles,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: username or email is already in use", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "username", user.Username, "user_id", user.ID, "admin", req.Admin)
	return &user, nil
}

// Update edits a profile. Permitted for the user themselves or an admin.
func (s *UserService) Update(p *auth.Principal, id uint, req *dto.UpdateUserRequest) (*models.User, error) {
	if err := authz.RequireSelfOrAdmin(p, id); err != nil {
		return nil, err
	}

	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Email != user.Email {
		var count int64
		if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", req.Email, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: email is already in use", apperr.ErrConflict)
		}
	}

	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if err := s.db.Save(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: email is already in use", apperr.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the account and cascades to its documents, including their
// stored blobs and tag associations. Tag rows are left for the unused sweep.
func (s *UserService) Delete(id uint) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var blobs []string
	for _, doc := range user.Documents {
		if doc.HasFile() {
			blobs = append(blobs, doc.FilePath)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var docIDs []uint
		if err := tx.Model(&models.Document{}).Where("user_id = ?", id).Pluck("id", &docIDs).Error; err != nil {
			return err
		}
		if len(docIDs) > 0 {
			if err := tx.Exec("DELETE FROM document_tags WHERE document_id IN ?", docIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&models.Document{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for _, blob := range blobs {
		if err := s.store.Delete(blob); err != nil {
			slog.Error("failed to delete stored file", "user_id", id, "path", blob, "error", err)
		}
	}

	slog.Info("user deleted", "user_id", id, "documents", len(user.Documents))
	return nil
}

func (s *UserService) UsernameExists(username string) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (s *UserService) EmailExists(email string) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}
