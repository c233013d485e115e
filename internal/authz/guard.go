// Package authz holds the access-control rules as plain predicates over the
// request principal and the resource owner. Services consult these before any
// mutation; no route-level magic decides visibility.
package authz

import (
	"docmanager/internal/apperr"
	"docmanager/internal/auth"

	"gorm.io/gorm"
)

// RequireAdmin gates purely administrative operations. The caller's existence
// is not in question here, so the violation is ErrForbidden.
func RequireAdmin(p *auth.Principal) error {
	if p == nil {
		return apperr.ErrInvalidToken
	}
	if !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

// CanAccessResource allows the owner and admins. Callers surface a violation
// as not-found so the existence of another user's resource is not disclosed.
func CanAccessResource(p *auth.Principal, ownerID uint) bool {
	if p == nil {
		return false
	}
	return p.ID == ownerID || p.IsAdmin()
}

// RequireResourceAccess maps an ownership violation to ErrNotFound.
func RequireResourceAccess(p *auth.Principal, ownerID uint) error {
	if !CanAccessResource(p, ownerID) {
		return apperr.ErrNotFound
	}
	return nil
}

// RequireSelfOrAdmin gates profile operations on the target user.
func RequireSelfOrAdmin(p *auth.Principal, targetUserID uint) error {
	if p == nil {
		return apperr.ErrInvalidToken
	}
	if p.ID != targetUserID && !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

// OwnedBy scopes listing queries to the principal's rows; admins see all.
func OwnedBy(p *auth.Principal) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p != nil && p.IsAdmin() {
			return db
		}
		if p == nil {
			return db.Where("1 = 0")
		}
		return db.Where("user_id = ?", p.ID)
	}
}
