package dto

import (
	"time"

	"github.com/google/uuid"

	m "schoolku_backend/internals/features/finance/fee_schedules/model"
)

/* =========================================================
   CREATE / UPDATE
   ========================================================= */

type CreateFeeScheduleRequest struct {
	StructureID   uuid.UUID  `json:"fee_schedule_structure_id" validate:"required"`
	Recurrence    string     `json:"fee_schedule_recurrence" validate:"required,oneof=monthly quarterly half_yearly annual"`
	DueDayOfMonth int        `json:"fee_schedule_due_day_of_month" validate:"required,min=1,max=28"`
	StartDate     *time.Time `json:"fee_schedule_start_date"`
	EndDate       *time.Time `json:"fee_schedule_end_date"`
	ClassID       *uuid.UUID `json:"fee_schedule_class_id"`
	SectionID     *uuid.UUID `json:"fee_schedule_section_id"`
}

func (r *CreateFeeScheduleRequest) ToModel(branchID uuid.UUID) m.FeeScheduleModel {
	return m.FeeScheduleModel{
		FeeScheduleBranchID:      branchID,
		FeeScheduleStructureID:   r.StructureID,
		FeeScheduleRecurrence:    r.Recurrence,
		FeeScheduleDueDayOfMonth: r.DueDayOfMonth,
		FeeScheduleStartDate:     r.StartDate,
		FeeScheduleEndDate:       r.EndDate,
		FeeScheduleClassID:       r.ClassID,
		FeeScheduleSectionID:     r.SectionID,
		FeeScheduleStatus:        m.FeeScheduleStatusActive,
	}
}

type UpdateFeeScheduleRequest struct {
	Recurrence    *string    `json:"fee_schedule_recurrence" validate:"omitempty,oneof=monthly quarterly half_yearly annual"`
	DueDayOfMonth *int       `json:"fee_schedule_due_day_of_month" validate:"omitempty,min=1,max=28"`
	StartDate     *time.Time `json:"fee_schedule_start_date"`
	EndDate       *time.Time `json:"fee_schedule_end_date"`
}

/* =========================================================
   RESPONSE
   ========================================================= */

type FeeScheduleResponse struct {
	FeeScheduleID            uuid.UUID  `json:"fee_schedule_id"`
	FeeScheduleStructureID   uuid.UUID  `json:"fee_schedule_structure_id"`
	FeeScheduleRecurrence    string     `json:"fee_schedule_recurrence"`
	FeeScheduleDueDayOfMonth int        `json:"fee_schedule_due_day_of_month"`
	FeeScheduleStartDate     *time.Time `json:"fee_schedule_start_date,omitempty"`
	FeeScheduleEndDate       *time.Time `json:"fee_schedule_end_date,omitempty"`
	FeeScheduleClassID       *uuid.UUID `json:"fee_schedule_class_id,omitempty"`
	FeeScheduleSectionID     *uuid.UUID `json:"fee_schedule_section_id,omitempty"`
	FeeScheduleStatus        string     `json:"fee_schedule_status"`
	FeeScheduleCreatedAt     time.Time  `json:"fee_schedule_created_at"`
}

func FromFeeScheduleModel(s m.FeeScheduleModel) FeeScheduleResponse {
	return FeeScheduleResponse{
		FeeScheduleID:            s.FeeScheduleID,
		FeeScheduleStructureID:   s.FeeScheduleStructureID,
		FeeScheduleRecurrence:    s.FeeScheduleRecurrence,
		FeeScheduleDueDayOfMonth: s.FeeScheduleDueDayOfMonth,
		FeeScheduleStartDate:     s.FeeScheduleStartDate,
		FeeScheduleEndDate:       s.FeeScheduleEndDate,
		FeeScheduleClassID:       s.FeeScheduleClassID,
		FeeScheduleSectionID:     s.FeeScheduleSectionID,
		FeeScheduleStatus:        s.FeeScheduleStatus,
		FeeScheduleCreatedAt:     s.FeeScheduleCreatedAt,
	}
}

type FeeSchedulePreviewResponse struct {
	FeeScheduleID uuid.UUID   `json:"fee_schedule_id"`
	From          time.Time   `json:"from"`
	DueDates      []time.Time `json:"due_dates"`
}
