package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	m "schoolku_backend/internals/features/finance/payments/model"
)

type ApplyPaymentRequest struct {
	InvoiceID uuid.UUID  `json:"payment_invoice_id" validate:"required"`
	Reference string     `json:"payment_reference" validate:"required,min=1,max=120"`
	AmountIDR int        `json:"payment_amount_idr" validate:"gte=0"`
	Status    string     `json:"payment_status" validate:"required,oneof=SUCCESS FAILED"`
	Method    string     `json:"payment_method" validate:"omitempty,oneof=gateway bank_transfer cash qris other"`
	Gateway   string     `json:"payment_gateway" validate:"omitempty,max=40"`
	PaidAt    *time.Time `json:"payment_paid_at"`
	Note      *string    `json:"payment_note"`
}

type ApplyBulkPaymentRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids" validate:"required,min=2,dive,required"`
	Reference  string      `json:"payment_reference" validate:"required,min=1,max=120"`
	AmountIDR  int         `json:"payment_amount_idr" validate:"required,gt=0"`
	Method     string      `json:"payment_method" validate:"omitempty,oneof=gateway bank_transfer cash qris other"`
	Gateway    string      `json:"payment_gateway" validate:"omitempty,max=40"`
	PaidAt     *time.Time  `json:"payment_paid_at"`
	Note       *string     `json:"payment_note"`
}

type PaymentResponse struct {
	PaymentID          uuid.UUID         `json:"payment_id"`
	PaymentInvoiceID   uuid.UUID         `json:"payment_invoice_id"`
	PaymentStudentID   uuid.UUID         `json:"payment_student_id"`
	PaymentAmountIDR   int               `json:"payment_amount_idr"`
	PaymentMethod      string            `json:"payment_method"`
	PaymentGateway     string            `json:"payment_gateway"`
	PaymentReference   string            `json:"payment_reference"`
	PaymentStatus      string            `json:"payment_status"`
	PaymentPaidAt      time.Time         `json:"payment_paid_at"`
	PaymentBulkGroupID *uuid.UUID        `json:"payment_bulk_group_id,omitempty"`
	PaymentMeta        datatypes.JSONMap `json:"payment_meta,omitempty"`
	PaymentNote        *string           `json:"payment_note,omitempty"`
	PaymentCreatedAt   time.Time         `json:"payment_created_at"`
}

func FromPaymentModel(p m.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:          p.PaymentID,
		PaymentInvoiceID:   p.PaymentInvoiceID,
		PaymentStudentID:   p.PaymentStudentID,
		PaymentAmountIDR:   p.PaymentAmountIDR,
		PaymentMethod:      p.PaymentMethod,
		PaymentGateway:     p.PaymentGateway,
		PaymentReference:   p.PaymentReference,
		PaymentStatus:      p.PaymentStatus,
		PaymentPaidAt:      p.PaymentPaidAt,
		PaymentBulkGroupID: p.PaymentBulkGroupID,
		PaymentMeta:        p.PaymentMeta,
		PaymentNote:        p.PaymentNote,
		PaymentCreatedAt:   p.PaymentCreatedAt,
	}
}
