package models

import (
	"time"

	"gorm.io/datatypes"
)

// PermissionTree holds one principal's module permissions as a JSON document
// keyed by namespace and module, e.g. {"commonPermissions": {"company": {...}}}.
type PermissionTree struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Document  datatypes.JSON `json:"document"`
	UpdatedBy uint           `json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
