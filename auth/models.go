package auth

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr" bson:"-" json:"-"`
	ID            string     `bun:"id,pk" bson:"_id" json:"id"`
	Name          string     `bun:"name,notnull" bson:"name" json:"name"`
	Email         string     `bun:"email,notnull,unique" bson:"email" json:"email"`
	PasswordHash  string     `bun:"password_hash,notnull" bson:"password_hash" json:"-"`
	Role          UserRole   `bun:"role,notnull" bson:"role" json:"role"`
	Active        bool       `bun:"is_active,notnull" bson:"is_active" json:"isActive"`
	Avatar        string     `bun:"avatar" bson:"avatar,omitempty" json:"avatar,omitempty"`
	LastLogin     *time.Time `bun:"last_login,nullzero" bson:"last_login,omitempty" json:"lastLogin"`
	CreatedAt     time.Time  `bun:"created_at,notnull" bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull" bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the only user shape that leaves the auth package.
type PublicUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Active    bool       `json:"isActive"`
	Avatar    string     `json:"avatar,omitempty"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Public strips the password hash
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		Avatar:    u.Avatar,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Identity returns the trimmed identity attached to authenticated requests
func (u *User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Clone returns a deep copy so stores never hand out shared pointers
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// UserPatch holds the mutable user attributes. Nil fields are left untouched.
type UserPatch struct {
	Name      *string
	Avatar    *string
	Role      *UserRole
	Active    *bool
	LastLogin *time.Time
}

// Apply mutates u with the non nil patch fields and bumps UpdatedAt
func (p UserPatch) Apply(u *User, now time.Time) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Avatar != nil {
		u.Avatar = strings.TrimSpace(*p.Avatar)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
	u.UpdatedAt = now
}

// NormalizeEmail is the canonical form used for storage and lookups,
// which makes email uniqueness case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PrepareUserDefaults fills the attributes a new record must carry
func PrepareUserDefaults(u *User, now time.Time) {
	if u == nil {
		return
	}
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
}
