package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SectionModel struct {
	SectionID       uuid.UUID `gorm:"column:section_id;type:uuid;primaryKey" json:"section_id"`
	SectionBranchID uuid.UUID `gorm:"column:section_branch_id;type:uuid;not null;index" json:"section_branch_id"`

	// Parent kelas (dipakai transfer untuk resolve class denormalisasi siswa)
	SectionClassID uuid.UUID `gorm:"column:section_class_id;type:uuid;not null;index" json:"section_class_id"`

	SectionName     string `gorm:"column:section_name;type:text;not null" json:"section_name"`
	SectionCapacity *int   `gorm:"column:section_capacity" json:"section_capacity,omitempty"`

	SectionCreatedAt time.Time      `gorm:"column:section_created_at;autoCreateTime" json:"section_created_at"`
	SectionUpdatedAt time.Time      `gorm:"column:section_updated_at;autoUpdateTime" json:"section_updated_at"`
	SectionDeletedAt gorm.DeletedAt `gorm:"column:section_deleted_at;index" json:"section_deleted_at,omitempty"`
}

func (SectionModel) TableName() string { return "class_sections" }

func (m *SectionModel) BeforeCreate(tx *gorm.DB) error {
	if m.SectionID == uuid.Nil {
		m.SectionID = uuid.New()
	}
	if m.SectionBranchID == uuid.Nil {
		return fmt.Errorf("section_branch_id is required")
	}
	if m.SectionClassID == uuid.Nil {
		return fmt.Errorf("section_class_id is required")
	}
	return nil
}
