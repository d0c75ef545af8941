package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassModel struct {
	ClassID       uuid.UUID `gorm:"column:class_id;type:uuid;primaryKey" json:"class_id"`
	ClassBranchID uuid.UUID `gorm:"column:class_branch_id;type:uuid;not null;index" json:"class_branch_id"`

	ClassName  string `gorm:"column:class_name;type:text;not null" json:"class_name"`
	ClassGrade string `gorm:"column:class_grade;type:varchar(20);not null;index" json:"class_grade"`

	ClassCreatedAt time.Time      `gorm:"column:class_created_at;autoCreateTime" json:"class_created_at"`
	ClassUpdatedAt time.Time      `gorm:"column:class_updated_at;autoUpdateTime" json:"class_updated_at"`
	ClassDeletedAt gorm.DeletedAt `gorm:"column:class_deleted_at;index" json:"class_deleted_at,omitempty"`
}

func (ClassModel) TableName() string { return "classes" }

func (m *ClassModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClassID == uuid.Nil {
		m.ClassID = uuid.New()
	}
	if m.ClassBranchID == uuid.Nil {
		return fmt.Errorf("class_branch_id is required")
	}
	return nil
}
