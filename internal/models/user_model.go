package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleSubAdmin Role = "sub_admin"
	RoleUser     Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleSubAdmin, RoleUser:
		return true
	}
	return false
}

// User is the acting principal. Accounts are never physically removed;
// IsActive and IsDeleted are soft markers only an admin may change.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:100" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	Role      Role      `gorm:"size:20;index;not null" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	IsDeleted bool      `gorm:"not null;index" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
