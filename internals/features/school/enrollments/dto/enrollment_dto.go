package dto

import (
	"time"

	"github.com/google/uuid"

	m "schoolku_backend/internals/features/school/enrollments/model"
)

type TransferStudentRequest struct {
	StudentID    uuid.UUID  `json:"student_id" validate:"required"`
	NewSectionID uuid.UUID  `json:"new_section_id" validate:"required"`
	// Tanggal efektif perpindahan; kosong = hari ini.
	EffectiveDate *time.Time `json:"effective_date"`
}

type EnrollmentResponse struct {
	EnrollmentID        uuid.UUID  `json:"enrollment_id"`
	EnrollmentStudentID uuid.UUID  `json:"enrollment_student_id"`
	EnrollmentSectionID uuid.UUID  `json:"enrollment_section_id"`
	EnrollmentClassID   uuid.UUID  `json:"enrollment_class_id"`
	EnrollmentStartDate time.Time  `json:"enrollment_start_date"`
	EnrollmentEndDate   *time.Time `json:"enrollment_end_date,omitempty"`
	EnrollmentStatus    string     `json:"enrollment_status"`
}

func FromEnrollmentModel(e m.EnrollmentModel) EnrollmentResponse {
	return EnrollmentResponse{
		EnrollmentID:        e.EnrollmentID,
		EnrollmentStudentID: e.EnrollmentStudentID,
		EnrollmentSectionID: e.EnrollmentSectionID,
		EnrollmentClassID:   e.EnrollmentClassID,
		EnrollmentStartDate: e.EnrollmentStartDate,
		EnrollmentEndDate:   e.EnrollmentEndDate,
		EnrollmentStatus:    e.EnrollmentStatus,
	}
}
