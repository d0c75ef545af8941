package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchModel adalah akar tenancy: satu sekolah/kampus.
// Setiap entitas lain membawa branch_id dan query tidak boleh lintas branch.
type BranchModel struct {
	BranchID   uuid.UUID `gorm:"column:branch_id;type:uuid;primaryKey" json:"branch_id"`
	BranchName string    `gorm:"column:branch_name;type:text;not null" json:"branch_name"`
	BranchSlug string    `gorm:"column:branch_slug;type:varchar(80);not null;uniqueIndex" json:"branch_slug"`

	BranchCreatedAt time.Time      `gorm:"column:branch_created_at;autoCreateTime" json:"branch_created_at"`
	BranchUpdatedAt time.Time      `gorm:"column:branch_updated_at;autoUpdateTime" json:"branch_updated_at"`
	BranchDeletedAt gorm.DeletedAt `gorm:"column:branch_deleted_at;index" json:"branch_deleted_at,omitempty"`
}

func (BranchModel) TableName() string { return "branches" }

func (m *BranchModel) BeforeCreate(tx *gorm.DB) error {
	if m.BranchID == uuid.Nil {
		m.BranchID = uuid.New()
	}
	return nil
}
