package models

import (
	"strings"
	"time"
)

// Role is a closed enumeration of authorities a user can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User owns documents. Username and email are unique across all users.
type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Username              string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email                 string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password              string     `gorm:"size:255;not null" json:"-"`
	FirstName             string     `gorm:"size:100" json:"first_name,omitempty"`
	LastName              string     `gorm:"size:100" json:"last_name,omitempty"`
	Enabled               bool       `gorm:"not null;default:true" json:"enabled"`
	AccountNonExpired     bool       `gorm:"not null;default:true" json:"-"`
	AccountNonLocked      bool       `gorm:"not null;default:true" json:"-"`
	CredentialsNonExpired bool       `gorm:"not null;default:true" json:"-"`
	Roles                 []Role     `gorm:"serializer:json;type:text" json:"roles"`
	Documents             []Document `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FullName falls back to the username when no name parts are set.
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}
