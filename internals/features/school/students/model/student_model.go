package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StudentStatusActive   = "active"
	StudentStatusInactive = "inactive"
	StudentStatusAlumni   = "alumni"
)

type StudentModel struct {
	StudentID       uuid.UUID `gorm:"column:student_id;type:uuid;primaryKey" json:"student_id"`
	StudentBranchID uuid.UUID `gorm:"column:student_branch_id;type:uuid;not null;index;uniqueIndex:uq_student_code_per_branch,priority:1" json:"student_branch_id"`

	StudentName string `gorm:"column:student_name;type:text;not null" json:"student_name"`
	StudentCode string `gorm:"column:student_code;type:varchar(40);not null;uniqueIndex:uq_student_code_per_branch,priority:2" json:"student_code"`

	StudentStatus string `gorm:"column:student_status;type:varchar(20);not null;default:'active';index" json:"student_status"`

	// Denormalisasi: wajib selalu sama dengan section pada enrollment
	// yang masih terbuka (nil kalau tidak ada yang terbuka).
	StudentClassID   *uuid.UUID `gorm:"column:student_class_id;type:uuid;index" json:"student_class_id,omitempty"`
	StudentSectionID *uuid.UUID `gorm:"column:student_section_id;type:uuid;index" json:"student_section_id,omitempty"`

	StudentCreatedAt time.Time      `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string { return "students" }

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	if m.StudentBranchID == uuid.Nil {
		return fmt.Errorf("student_branch_id is required")
	}
	return nil
}
