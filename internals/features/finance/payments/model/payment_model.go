package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

const (
	PaymentMethodGateway      = "gateway"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodQRIS         = "qris"
	PaymentMethodOther        = "other"
)

/* ===================== Model ===================== */

// PaymentModel: catatan uang masuk (atau percobaan gagal) terhadap satu
// invoice. Immutable — koreksi selalu lewat payment baru, bukan edit histori.
// Unique (invoice_id, reference) = kontrak anti-replay rekonsiliasi.
type PaymentModel struct {
	PaymentID       uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	PaymentBranchID uuid.UUID `gorm:"column:payment_branch_id;type:uuid;not null;index" json:"payment_branch_id"`

	PaymentInvoiceID uuid.UUID `gorm:"column:payment_invoice_id;type:uuid;not null;index;uniqueIndex:uq_payment_reference_per_invoice,priority:1" json:"payment_invoice_id"`
	PaymentStudentID uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`

	PaymentAmountIDR int `gorm:"column:payment_amount_idr;not null;check:payment_amount_idr >= 0" json:"payment_amount_idr"`

	PaymentMethod  string `gorm:"column:payment_method;type:varchar(20);not null;default:'gateway'" json:"payment_method"`
	PaymentGateway string `gorm:"column:payment_gateway;type:varchar(40);not null;default:'manual'" json:"payment_gateway"`

	// Token eksternal dari gateway; unik per invoice (anti replay).
	PaymentReference string `gorm:"column:payment_reference;type:varchar(120);not null;uniqueIndex:uq_payment_reference_per_invoice,priority:2" json:"payment_reference"`

	PaymentStatus string    `gorm:"column:payment_status;type:varchar(10);not null" json:"payment_status"`
	PaymentPaidAt time.Time `gorm:"column:payment_paid_at;not null;index" json:"payment_paid_at"`

	// Diisi untuk pembayaran bulk: satu payment menutup beberapa invoice.
	// Daftar invoice tercakup disimpan di meta (key "covered_invoice_ids")
	// supaya linkage tetap bisa ditemukan dari invoice manapun di batch.
	PaymentBulkGroupID *uuid.UUID        `gorm:"column:payment_bulk_group_id;type:uuid;index" json:"payment_bulk_group_id,omitempty"`
	PaymentMeta        datatypes.JSONMap `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`

	PaymentNote *string `gorm:"column:payment_note;type:text" json:"payment_note,omitempty"`

	PaymentCreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentDeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (m *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentID == uuid.Nil {
		m.PaymentID = uuid.New()
	}
	if m.PaymentBranchID == uuid.Nil {
		return fmt.Errorf("payment_branch_id is required")
	}
	if m.PaymentReference == "" {
		return fmt.Errorf("payment_reference is required")
	}
	if m.PaymentStatus != PaymentStatusSuccess && m.PaymentStatus != PaymentStatusFailed {
		return fmt.Errorf("payment_status harus SUCCESS atau FAILED")
	}
	if m.PaymentAmountIDR < 0 {
		return fmt.Errorf("payment_amount_idr tidak boleh negatif")
	}
	if m.PaymentPaidAt.IsZero() {
		m.PaymentPaidAt = time.Now().UTC()
	}
	return nil
}

func (m *PaymentModel) IsSuccess() bool { return m.PaymentStatus == PaymentStatusSuccess }
func (m *PaymentModel) IsBulk() bool    { return m.PaymentBulkGroupID != nil }
