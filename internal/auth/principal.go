package auth

import (
	"docmanager/internal/models"
)

// Principal is the authenticated identity for a request. It is built once by
// the JWT middleware and passed explicitly through handlers and services;
// nothing reads it from ambient state.
type Principal struct {
	ID        uint
	Username  string
	Email     string
	FirstName string
	LastName  string
	Roles     []models.Role
}

func (p *Principal) HasRole(role models.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(models.RoleAdmin)
}

// PrincipalFromClaims builds the request identity from validated access-token
// claims. Name parts are not carried in tokens; handlers that need them
// re-resolve the user row.
func PrincipalFromClaims(c *Claims) (*Principal, error) {
	id, err := c.UserID()
	if err != nil {
		return nil, err
	}
	return &Principal{
		ID:       id,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
	}, nil
}

// PrincipalFromUser builds the request identity from a user row.
func PrincipalFromUser(u *models.User) *Principal {
	return &Principal{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     u.Roles,
	}
}
