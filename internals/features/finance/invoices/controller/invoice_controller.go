package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	invoiceDTO "schoolku_backend/internals/features/finance/invoices/dto"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	invoiceService "schoolku_backend/internals/features/finance/invoices/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type InvoiceController struct {
	DB        *gorm.DB
	Generator *invoiceService.GeneratorService
	Validate  *validator.Validate
}

func NewInvoiceController(db *gorm.DB, generator *invoiceService.GeneratorService) *InvoiceController {
	return &InvoiceController{DB: db, Generator: generator, Validate: validator.New()}
}

// POST /api/a/invoices/generate
// Idempoten: periode yang sudah punya invoice hanya menambah skipped.
func (h *InvoiceController) Generate(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req invoiceDTO.GenerateInvoicesRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	result, err := h.Generator.Generate(c.Context(), branchID, req.ScheduleID, asOf)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Generate invoice selesai", result)
}

// GET /api/a/invoices?student_id=&period=&status=&page=&per_page=
func (h *InvoiceController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "due_date", "asc", helper.AdminOpts)
	allowed := map[string]string{
		"due_date":   "invoice_due_date",
		"period":     "invoice_period",
		"status":     "invoice_status",
		"created_at": "invoice_created_at",
	}
	orderClause, err := p.SafeOrderClause(allowed, "due_date")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&invoiceModel.InvoiceModel{}).
		Where("invoice_branch_id = ?", branchID)
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		studentID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid")
		}
		q = q.Where("invoice_student_id = ?", studentID)
	}
	if period := strings.TrimSpace(c.Query("period")); period != "" {
		q = q.Where("invoice_period = ?", period)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("invoice_status = ?", strings.ToUpper(status))
	}
	if raw := strings.TrimSpace(c.Query("schedule_id")); raw != "" {
		scheduleID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "schedule_id tidak valid")
		}
		q = q.Where("invoice_schedule_id = ?", scheduleID)
	}
	if raw := strings.TrimSpace(c.Query("due_from")); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Format due_from harus YYYY-MM-DD")
		}
		q = q.Where("invoice_due_date >= ?", from)
	}
	if raw := strings.TrimSpace(c.Query("due_to")); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Format due_to harus YYYY-MM-DD")
		}
		q = q.Where("invoice_due_date <= ?", to)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var invoices []invoiceModel.InvoiceModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&invoices).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	items := make([]invoiceDTO.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, invoiceDTO.FromInvoiceModel(inv))
	}
	return helper.JsonList(c, "Daftar invoice", items,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// GET /api/a/invoices/:id
func (h *InvoiceController) GetByID(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}

	var inv invoiceModel.InvoiceModel
	if err := h.DB.
		Where("invoice_id = ? AND invoice_branch_id = ?", id, branchID).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Invoice tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}
	return helper.JsonOK(c, "Detail invoice", invoiceDTO.FromInvoiceModel(inv))
}

// POST /api/a/invoices/:id/cancel
// Invoice yang sudah di status terminal tidak bisa dibatalkan.
func (h *InvoiceController) Cancel(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}

	var inv invoiceModel.InvoiceModel
	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("invoice_id = ? AND invoice_branch_id = ?", id, branchID).
			First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Invoice tidak ditemukan")
			}
			return err
		}
		if inv.InvoiceStatus.IsTerminal() {
			return fiber.NewError(fiber.StatusConflict, "Invoice sudah di status akhir")
		}
		if err := tx.Model(&invoiceModel.InvoiceModel{}).
			Where("invoice_id = ?", inv.InvoiceID).
			Update("invoice_status", invoiceModel.InvoiceStatusCancelled).Error; err != nil {
			return err
		}
		inv.InvoiceStatus = invoiceModel.InvoiceStatusCancelled
		return nil
	}); err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonUpdated(c, "Invoice dibatalkan", invoiceDTO.FromInvoiceModel(inv))
}
