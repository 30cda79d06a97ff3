// Package users holds user accounts provisioned from the identity
// provider and resolves their roles for authorization decisions.
package users

import (
	"time"

	"github.com/lib/pq"
)

// Well-known roles. Roles are free-form strings in storage; these are
// the ones the authorization checks care about.
const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

type User struct {
	ID        int64          `db:"id" json:"id"`
	Email     string         `db:"email" json:"email"`
	Username  string         `db:"username" json:"username"`
	AvatarURL string         `db:"avatar_url" json:"avatarUrl,omitempty"`
	Provider  string         `db:"provider" json:"-"`
	Roles     pq.StringArray `db:"roles" json:"roles"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
