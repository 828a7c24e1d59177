package user

import (
	"time"

	"github.com/gin-gonic/gin"
)

// User is an account that can sign in. Superusers administer the CRM;
// staff users are eligible to own leads.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null" json:"is_superuser"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Actor performs operations on behalf of an authenticated user.
type Actor struct {
	ID       int64
	Username string
	IsAdmin  bool
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Username: u.Username, IsAdmin: u.IsSuperuser}
}

// Context keys set by the auth middleware.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxIsAdmin  = "is_admin"
)

// ActorFrom reads the authenticated actor from a gin context.
func ActorFrom(c *gin.Context) (Actor, bool) {
	id := c.GetInt64(CtxUserID)
	if id <= 0 {
		return Actor{}, false
	}
	return Actor{
		ID:       id,
		Username: c.GetString(CtxUsername),
		IsAdmin:  c.GetBool(CtxIsAdmin),
	}, true
}
