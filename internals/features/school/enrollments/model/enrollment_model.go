package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================
   Constants
========================= */

const (
	EnrollmentStatusActive      = "active"
	EnrollmentStatusTransferred = "transferred"
	EnrollmentStatusCompleted   = "completed"
)

/* =========================
   Model
========================= */

// EnrollmentModel: asosiasi siswa-section dengan rentang waktu.
// Invariant: maksimal satu baris per siswa dengan end_date NULL
// (dijaga partial unique index uq_enrollment_open_per_student).
type EnrollmentModel struct {
	EnrollmentID       uuid.UUID `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`
	EnrollmentBranchID uuid.UUID `gorm:"column:enrollment_branch_id;type:uuid;not null;index" json:"enrollment_branch_id"`

	EnrollmentStudentID uuid.UUID `gorm:"column:enrollment_student_id;type:uuid;not null;index" json:"enrollment_student_id"`
	EnrollmentSectionID uuid.UUID `gorm:"column:enrollment_section_id;type:uuid;not null;index" json:"enrollment_section_id"`

	// Snapshot parent class section saat enrol (biar histori tetap benar
	// walau section dipindah kelas belakangan).
	EnrollmentClassID uuid.UUID `gorm:"column:enrollment_class_id;type:uuid;not null;index" json:"enrollment_class_id"`

	EnrollmentStartDate time.Time  `gorm:"column:enrollment_start_date;type:date;not null" json:"enrollment_start_date"`
	EnrollmentEndDate   *time.Time `gorm:"column:enrollment_end_date;type:date" json:"enrollment_end_date,omitempty"`

	EnrollmentStatus string `gorm:"column:enrollment_status;type:varchar(20);not null;default:'active';index" json:"enrollment_status"`

	EnrollmentCreatedAt time.Time      `gorm:"column:enrollment_created_at;autoCreateTime" json:"enrollment_created_at"`
	EnrollmentUpdatedAt time.Time      `gorm:"column:enrollment_updated_at;autoUpdateTime" json:"enrollment_updated_at"`
	EnrollmentDeletedAt gorm.DeletedAt `gorm:"column:enrollment_deleted_at;index" json:"enrollment_deleted_at,omitempty"`
}

func (EnrollmentModel) TableName() string { return "student_enrollments" }

func (m *EnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.EnrollmentID == uuid.Nil {
		m.EnrollmentID = uuid.New()
	}
	if m.EnrollmentBranchID == uuid.Nil {
		return fmt.Errorf("enrollment_branch_id is required")
	}
	if m.EnrollmentStudentID == uuid.Nil || m.EnrollmentSectionID == uuid.Nil {
		return fmt.Errorf("enrollment_student_id dan enrollment_section_id wajib diisi")
	}
	return nil
}

// IsOpen: enrollment masih berjalan (belum ditutup).
func (m *EnrollmentModel) IsOpen() bool { return m.EnrollmentEndDate == nil }
