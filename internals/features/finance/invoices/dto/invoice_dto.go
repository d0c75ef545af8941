package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	m "schoolku_backend/internals/features/finance/invoices/model"
)

type GenerateInvoicesRequest struct {
	ScheduleID uuid.UUID `json:"fee_schedule_id" validate:"required"`
	// Tanggal acuan periode; kosong = hari ini.
	AsOf *time.Time `json:"as_of"`
}

type InvoiceResponse struct {
	InvoiceID                 uuid.UUID       `json:"invoice_id"`
	InvoiceStudentID          uuid.UUID       `json:"invoice_student_id"`
	InvoiceStructureID        uuid.UUID       `json:"invoice_structure_id"`
	InvoiceScheduleID         *uuid.UUID      `json:"invoice_schedule_id,omitempty"`
	InvoicePeriod             string          `json:"invoice_period"`
	InvoiceAmountIDR          int             `json:"invoice_amount_idr"`
	InvoiceComponentsSnapshot datatypes.JSON  `json:"invoice_components_snapshot,omitempty"`
	InvoiceDueDate            time.Time       `json:"invoice_due_date"`
	InvoiceStatus             m.InvoiceStatus `json:"invoice_status"`
	InvoiceBulkGroupID        *uuid.UUID      `json:"invoice_bulk_group_id,omitempty"`
	InvoiceCreatedAt          time.Time       `json:"invoice_created_at"`
}

func FromInvoiceModel(inv m.InvoiceModel) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:                 inv.InvoiceID,
		InvoiceStudentID:          inv.InvoiceStudentID,
		InvoiceStructureID:        inv.InvoiceStructureID,
		InvoiceScheduleID:         inv.InvoiceScheduleID,
		InvoicePeriod:             inv.InvoicePeriod,
		InvoiceAmountIDR:          inv.InvoiceAmountIDR,
		InvoiceComponentsSnapshot: inv.InvoiceComponentsSnapshot,
		InvoiceDueDate:            inv.InvoiceDueDate,
		InvoiceStatus:             inv.InvoiceStatus,
		InvoiceBulkGroupID:        inv.InvoiceBulkGroupID,
		InvoiceCreatedAt:          inv.InvoiceCreatedAt,
	}
}
