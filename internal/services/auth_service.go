package services

import (
	"errors"
	"fmt"
	"log/slog"

	"docmanager/internal/apperr"
	"docmanager/internal/auth"
	"docmanager/internal/dto"
	"docmanager/internal/events"
	"docmanager/internal/models"

	"gorm.io/gorm"
)

// AuthService covers registration, credential verification and the token
// lifecycle. Tokens are stateless; the only persistent side of auth is the
// user row itself.
type AuthService struct {
	db        *gorm.DB
	tokens    *auth.TokenService
	publisher *events.Publisher
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenService, publisher *events.Publisher) *AuthService {
	return &AuthService{db: db, tokens: tokens, publisher: publisher}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email is already in use", apperr.ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
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
		Roles:                 []models.Role{models.RoleUser},
	}

	if err := s.db.Create(&user).Error; err != nil {
		// Pre-checks race with concurrent registrations; the index has the
		// final word.
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: username or email is already in use", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "username", user.Username, "user_id", user.ID)
	s.publisher.Publish(events.Message{Event: events.UserRegistered, UserID: user.ID})

	return s.tokenPair(&user)
}

// Authenticate verifies an identifier/password pair. The identifier may be a
// username or an email; username wins when both match. Every failure mode
// collapses into ErrInvalidCredentials.
func (s *AuthService) Authenticate(identifier, password string) (*models.User, error) {
	if identifier == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.Where("username = ?", identifier).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Where("email = ?", identifier).First(&user).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active() {
		return nil, apperr.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.Authenticate(req.UsernameOrEmail, req.Password)
	if err != nil {
		return nil, err
	}
	slog.Info("user logged in", "username", user.Username, "user_id", user.ID)
	return s.tokenPair(user)
}

// Refresh exchanges a valid refresh token for a fresh pair. The user row is
// re-resolved so role and enablement changes take effect now rather than when
// the old claims were minted.
func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	claims, err := s.tokens.ParseOfType(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active() {
		return nil, apperr.ErrInvalidToken
	}

	return s.tokenPair(&user)
}

func (s *AuthService) ChangePassword(p *auth.Principal, req *dto.ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		return apperr.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("password", hash).Error; err != nil {
		return err
	}

	slog.Info("password changed", "user_id", user.ID)
	return nil
}

// CurrentUser re-reads the principal's row for /auth/me.
func (s *AuthService) CurrentUser(p *auth.Principal) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) tokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		User:         dto.UserInfoFromModel(user),
	}, nil
}
