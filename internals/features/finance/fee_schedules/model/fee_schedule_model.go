package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	RecurrenceMonthly    = "monthly"
	RecurrenceQuarterly  = "quarterly"
	RecurrenceHalfYearly = "half_yearly"
	RecurrenceAnnual     = "annual"
)

const (
	FeeScheduleStatusActive = "active"
	FeeScheduleStatusPaused = "paused"
)

// MonthsPerBucket mengembalikan panjang bucket (bulan) untuk satu recurrence;
// 0 kalau recurrence tidak dikenal.
func MonthsPerBucket(recurrence string) int {
	switch recurrence {
	case RecurrenceMonthly:
		return 1
	case RecurrenceQuarterly:
		return 3
	case RecurrenceHalfYearly:
		return 6
	case RecurrenceAnnual:
		return 12
	default:
		return 0
	}
}

/* ===================== Model ===================== */

type FeeScheduleModel struct {
	FeeScheduleID       uuid.UUID `gorm:"column:fee_schedule_id;type:uuid;primaryKey" json:"fee_schedule_id"`
	FeeScheduleBranchID uuid.UUID `gorm:"column:fee_schedule_branch_id;type:uuid;not null;index" json:"fee_schedule_branch_id"`

	FeeScheduleStructureID uuid.UUID `gorm:"column:fee_schedule_structure_id;type:uuid;not null;index" json:"fee_schedule_structure_id"`

	FeeScheduleRecurrence string `gorm:"column:fee_schedule_recurrence;type:varchar(20);not null" json:"fee_schedule_recurrence"`

	// 1..28 supaya selalu resolvable di semua bulan (Februari aman).
	FeeScheduleDueDayOfMonth int `gorm:"column:fee_schedule_due_day_of_month;not null;check:fee_schedule_due_day_of_month BETWEEN 1 AND 28" json:"fee_schedule_due_day_of_month"`

	// Jendela berlaku opsional
	FeeScheduleStartDate *time.Time `gorm:"column:fee_schedule_start_date;type:date" json:"fee_schedule_start_date,omitempty"`
	FeeScheduleEndDate   *time.Time `gorm:"column:fee_schedule_end_date;type:date" json:"fee_schedule_end_date,omitempty"`

	// Scoping populasi opsional
	FeeScheduleClassID   *uuid.UUID `gorm:"column:fee_schedule_class_id;type:uuid;index" json:"fee_schedule_class_id,omitempty"`
	FeeScheduleSectionID *uuid.UUID `gorm:"column:fee_schedule_section_id;type:uuid;index" json:"fee_schedule_section_id,omitempty"`

	FeeScheduleStatus string `gorm:"column:fee_schedule_status;type:varchar(20);not null;default:'active';index" json:"fee_schedule_status"`

	FeeScheduleCreatedAt time.Time      `gorm:"column:fee_schedule_created_at;autoCreateTime" json:"fee_schedule_created_at"`
	FeeScheduleUpdatedAt time.Time      `gorm:"column:fee_schedule_updated_at;autoUpdateTime" json:"fee_schedule_updated_at"`
	FeeScheduleDeletedAt gorm.DeletedAt `gorm:"column:fee_schedule_deleted_at;index" json:"fee_schedule_deleted_at,omitempty"`
}

func (FeeScheduleModel) TableName() string { return "fee_schedules" }

func (m *FeeScheduleModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeScheduleID == uuid.Nil {
		m.FeeScheduleID = uuid.New()
	}
	if m.FeeScheduleBranchID == uuid.Nil {
		return fmt.Errorf("fee_schedule_branch_id is required")
	}
	return m.validate()
}

// BeforeUpdate: update kolom lewat Model(&FeeScheduleModel{}) membawa struct
// kosong (mis. ganti status pause/resume); validasi penuh hanya jalan saat
// baris utuh ikut ditulis (Save setelah load).
func (m *FeeScheduleModel) BeforeUpdate(tx *gorm.DB) error {
	if m.FeeScheduleID == uuid.Nil {
		return nil
	}
	return m.validate()
}

// validate menjaga fungsi periode tetap total: due day 29–31 ditolak di sini
// sehingga ComputePeriod tidak butuh cabang "tanggal tidak ada di Februari".
func (m *FeeScheduleModel) validate() error {
	if MonthsPerBucket(m.FeeScheduleRecurrence) == 0 {
		return fmt.Errorf("fee_schedule_recurrence %q tidak dikenal", m.FeeScheduleRecurrence)
	}
	if m.FeeScheduleDueDayOfMonth < 1 || m.FeeScheduleDueDayOfMonth > 28 {
		return fmt.Errorf("fee_schedule_due_day_of_month harus 1..28")
	}
	if m.FeeScheduleStartDate != nil && m.FeeScheduleEndDate != nil &&
		m.FeeScheduleEndDate.Before(*m.FeeScheduleStartDate) {
		return fmt.Errorf("fee_schedule_end_date sebelum fee_schedule_start_date")
	}
	return nil
}

func (m *FeeScheduleModel) IsPaused() bool {
	return m.FeeScheduleStatus == FeeScheduleStatusPaused
}

// InWindow: asOf berada dalam jendela berlaku (inklusif di kedua ujung).
func (m *FeeScheduleModel) InWindow(asOf time.Time) bool {
	if m.FeeScheduleStartDate != nil && asOf.Before(*m.FeeScheduleStartDate) {
		return false
	}
	if m.FeeScheduleEndDate != nil && asOf.After(*m.FeeScheduleEndDate) {
		return false
	}
	return true
}
