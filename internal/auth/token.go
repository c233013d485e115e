package auth

import (
	"fmt"
	"strconv"
	"time"

	"docmanager/internal/apperr"
	"docmanager/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both token kinds. Subject is the user ID; TokenType
// distinguishes access tokens from refresh tokens so one cannot stand in for
// the other.
type Claims struct {
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Roles     []models.Role `json:"roles"`
	TokenType string        `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed bearer tokens. It keeps no
// server-side state; a token is valid until its own expiry.
type TokenService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenService(secret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssueAccessToken returns the signed token and its lifetime in seconds.
func (s *TokenService) IssueAccessToken(u *models.User) (string, int64, error) {
	token, err := s.sign(u, TokenTypeAccess, s.accessExpiry)
	if err != nil {
		return "", 0, err
	}
	return token, int64(s.accessExpiry.Seconds()), nil
}

func (s *TokenService) IssueRefreshToken(u *models.User) (string, error) {
	return s.sign(u, TokenTypeRefresh, s.refreshExpiry)
}

func (s *TokenService) sign(u *models.User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.Roles,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// KeyFunc exposes the verification key to the HTTP middleware. It refuses any
// signing method other than HMAC so an attacker cannot downgrade to "none".
func (s *TokenService) KeyFunc() jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}
}

// Validate reports whether the token is well-formed, signed by us and not
// expired. It never returns an error.
func (s *TokenService) Validate(token string) bool {
	_, err := s.Parse(token)
	return err == nil
}

// Parse verifies signature and expiry and returns the claims. Any failure
// collapses into ErrInvalidToken; callers learn nothing about the cause.
func (s *TokenService) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.KeyFunc())
	if err != nil || !parsed.Valid {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

// ParseOfType additionally requires the token kind to match.
func (s *TokenService) ParseOfType(token, tokenType string) (*Claims, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

// UserID extracts the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, apperr.ErrInvalidToken
	}
	return uint(id), nil
}
