package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// FeeStructureModel: bundel komponen biaya per grade (katalog statis).
type FeeStructureModel struct {
	FeeStructureID       uuid.UUID `gorm:"column:fee_structure_id;type:uuid;primaryKey" json:"fee_structure_id"`
	FeeStructureBranchID uuid.UUID `gorm:"column:fee_structure_branch_id;type:uuid;not null;index" json:"fee_structure_branch_id"`

	FeeStructureName string `gorm:"column:fee_structure_name;type:text;not null" json:"fee_structure_name"`

	// Scoping grade opsional, mis. {"7","8"} — kosong berarti semua grade.
	FeeStructureGrades pq.StringArray `gorm:"column:fee_structure_grades;type:text[]" json:"fee_structure_grades,omitempty"`

	FeeStructureIsActive bool `gorm:"column:fee_structure_is_active;not null;default:true" json:"fee_structure_is_active"`

	FeeStructureCreatedAt time.Time      `gorm:"column:fee_structure_created_at;autoCreateTime" json:"fee_structure_created_at"`
	FeeStructureUpdatedAt time.Time      `gorm:"column:fee_structure_updated_at;autoUpdateTime" json:"fee_structure_updated_at"`
	FeeStructureDeletedAt gorm.DeletedAt `gorm:"column:fee_structure_deleted_at;index" json:"fee_structure_deleted_at,omitempty"`

	// Preload opsional
	Components []FeeComponentModel `gorm:"foreignKey:FeeComponentStructureID;references:FeeStructureID" json:"components,omitempty"`
}

func (FeeStructureModel) TableName() string { return "fee_structures" }

func (m *FeeStructureModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeStructureID == uuid.Nil {
		m.FeeStructureID = uuid.New()
	}
	if m.FeeStructureBranchID == uuid.Nil {
		return fmt.Errorf("fee_structure_branch_id is required")
	}
	return nil
}
