package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ==============================
   ENUM — status invoice
============================== */

type InvoiceStatus string

const (
	InvoiceStatusPending          InvoiceStatus = "PENDING"
	InvoiceStatusPartial          InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid             InvoiceStatus = "PAID"
	InvoiceStatusOverduePaid      InvoiceStatus = "OVERDUE_PAID"
	InvoiceStatusPaidEarly        InvoiceStatus = "PAID_EARLY"
	InvoiceStatusPaidInstallments InvoiceStatus = "PAID_INSTALLMENTS"
	InvoiceStatusPaidBulk         InvoiceStatus = "PAID_BULK"
	InvoiceStatusPaymentFailed    InvoiceStatus = "PAYMENT_FAILED"
	InvoiceStatusCancelled        InvoiceStatus = "CANCELLED"
)

// IsTerminal: status final — tidak ikut rekonsiliasi lagi.
// PARTIAL dan PAYMENT_FAILED masih bisa bergerak saat pembayaran
// berikutnya masuk; PENDING jelas belum final.
func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusOverduePaid, InvoiceStatusPaidEarly,
		InvoiceStatusPaidInstallments, InvoiceStatusPaidBulk, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

/* ==============================
   Model
============================== */

// InvoiceModel: tagihan satu siswa untuk satu periode.
// Unique (branch, structure, student, period) = kontrak idempoten generator:
// generate ulang tidak pernah menduplikasi tagihan.
type InvoiceModel struct {
	InvoiceID       uuid.UUID `gorm:"column:invoice_id;type:uuid;primaryKey" json:"invoice_id"`
	InvoiceBranchID uuid.UUID `gorm:"column:invoice_branch_id;type:uuid;not null;index;uniqueIndex:uq_invoice_student_period,priority:1" json:"invoice_branch_id"`

	InvoiceStructureID uuid.UUID  `gorm:"column:invoice_structure_id;type:uuid;not null;index;uniqueIndex:uq_invoice_student_period,priority:2" json:"invoice_structure_id"`
	InvoiceStudentID   uuid.UUID  `gorm:"column:invoice_student_id;type:uuid;not null;index;uniqueIndex:uq_invoice_student_period,priority:3" json:"invoice_student_id"`
	InvoiceScheduleID  *uuid.UUID `gorm:"column:invoice_schedule_id;type:uuid;index" json:"invoice_schedule_id,omitempty"`

	// Kunci kanonik bucket billing, format "YYYY-MM" (bulan awal bucket).
	InvoicePeriod string `gorm:"column:invoice_period;type:varchar(7);not null;index;uniqueIndex:uq_invoice_student_period,priority:4" json:"invoice_period"`

	// Snapshot saat generate — edit struktur belakangan tidak mengubah tagihan.
	InvoiceAmountIDR          int            `gorm:"column:invoice_amount_idr;not null;check:invoice_amount_idr >= 0" json:"invoice_amount_idr"`
	InvoiceComponentsSnapshot datatypes.JSON `gorm:"column:invoice_components_snapshot;type:jsonb" json:"invoice_components_snapshot,omitempty"`

	InvoiceDueDate time.Time     `gorm:"column:invoice_due_date;type:date;not null;index" json:"invoice_due_date"`
	InvoiceStatus  InvoiceStatus `gorm:"column:invoice_status;type:varchar(20);not null;default:'PENDING';index" json:"invoice_status"`

	// Diisi saat invoice ini dilunasi lewat pembayaran bulk; semua invoice
	// dalam satu bulk memakai group id yang sama dengan payment-nya.
	InvoiceBulkGroupID *uuid.UUID `gorm:"column:invoice_bulk_group_id;type:uuid;index" json:"invoice_bulk_group_id,omitempty"`

	InvoiceCreatedAt time.Time      `gorm:"column:invoice_created_at;autoCreateTime" json:"invoice_created_at"`
	InvoiceUpdatedAt time.Time      `gorm:"column:invoice_updated_at;autoUpdateTime" json:"invoice_updated_at"`
	InvoiceDeletedAt gorm.DeletedAt `gorm:"column:invoice_deleted_at;index" json:"invoice_deleted_at,omitempty"`
}

func (InvoiceModel) TableName() string { return "invoices" }

func (m *InvoiceModel) BeforeCreate(tx *gorm.DB) error {
	if m.InvoiceID == uuid.Nil {
		m.InvoiceID = uuid.New()
	}
	if m.InvoiceBranchID == uuid.Nil {
		return fmt.Errorf("invoice_branch_id is required")
	}
	if m.InvoiceStatus == "" {
		m.InvoiceStatus = InvoiceStatusPending
	}
	if m.InvoiceAmountIDR < 0 {
		return fmt.Errorf("invoice_amount_idr tidak boleh negatif")
	}
	return nil
}

// PeriodStart menurunkan tanggal awal periode dari kunci "YYYY-MM".
func (m *InvoiceModel) PeriodStart() (time.Time, error) {
	return time.Parse("2006-01", m.InvoicePeriod)
}
