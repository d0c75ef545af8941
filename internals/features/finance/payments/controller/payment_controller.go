package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	paymentDTO "schoolku_backend/internals/features/finance/payments/dto"
	paymentModel "schoolku_backend/internals/features/finance/payments/model"
	paymentService "schoolku_backend/internals/features/finance/payments/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type PaymentController struct {
	DB         *gorm.DB
	Reconciler *paymentService.ReconcilerService
	Validate   *validator.Validate
}

func NewPaymentController(db *gorm.DB, reconciler *paymentService.ReconcilerService) *PaymentController {
	return &PaymentController{DB: db, Reconciler: reconciler, Validate: validator.New()}
}

// POST /api/a/payments
// Satu event pembayaran (SUCCESS/FAILED) untuk satu invoice. Replay
// dengan reference yang sama tidak menggandakan pembayaran.
func (h *PaymentController) Apply(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req paymentDTO.ApplyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	in := paymentService.ApplyPaymentInput{
		InvoiceID: req.InvoiceID,
		Reference: strings.TrimSpace(req.Reference),
		AmountIDR: req.AmountIDR,
		Status:    req.Status,
		Method:    req.Method,
		Gateway:   req.Gateway,
		Note:      req.Note,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	} else {
		in.PaidAt = time.Now().UTC()
	}

	result, err := h.Reconciler.ApplyPayment(c.Context(), branchID, in)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if result.Replayed {
		return helper.JsonOK(c, "Pembayaran sudah pernah tercatat", result)
	}
	return helper.JsonCreated(c, "Pembayaran berhasil dicatat", result)
}

// POST /api/a/payments/bulk
func (h *PaymentController) ApplyBulk(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req paymentDTO.ApplyBulkPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	in := paymentService.ApplyBulkPaymentInput{
		InvoiceIDs: req.InvoiceIDs,
		Reference:  strings.TrimSpace(req.Reference),
		AmountIDR:  req.AmountIDR,
		Method:     req.Method,
		Gateway:    req.Gateway,
		Note:       req.Note,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}

	result, err := h.Reconciler.ApplyBulkPayment(c.Context(), branchID, in)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if result.Replayed {
		return helper.JsonOK(c, "Bulk payment sudah pernah tercatat", result)
	}
	return helper.JsonCreated(c, "Bulk payment berhasil dicatat", result)
}

// GET /api/a/payments?invoice_id=&student_id=&bulk_group_id=&status=
func (h *PaymentController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "paid_at", "desc", helper.AdminOpts)
	allowed := map[string]string{
		"paid_at":    "payment_paid_at",
		"amount":     "payment_amount_idr",
		"created_at": "payment_created_at",
	}
	orderClause, err := p.SafeOrderClause(allowed, "paid_at")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&paymentModel.PaymentModel{}).
		Where("payment_branch_id = ?", branchID)
	if raw := strings.TrimSpace(c.Query("invoice_id")); raw != "" {
		invoiceID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invoice_id tidak valid")
		}
		q = q.Where("payment_invoice_id = ?", invoiceID)
	}
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		studentID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid")
		}
		q = q.Where("payment_student_id = ?", studentID)
	}
	if raw := strings.TrimSpace(c.Query("bulk_group_id")); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "bulk_group_id tidak valid")
		}
		q = q.Where("payment_bulk_group_id = ?", groupID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("payment_status = ?", strings.ToUpper(status))
	}
	if raw := strings.TrimSpace(c.Query("paid_from")); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Format paid_from harus YYYY-MM-DD")
		}
		q = q.Where("payment_paid_at >= ?", from)
	}
	if raw := strings.TrimSpace(c.Query("paid_to")); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Format paid_to harus YYYY-MM-DD")
		}
		q = q.Where("payment_paid_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var payments []paymentModel.PaymentModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&payments).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	items := make([]paymentDTO.PaymentResponse, 0, len(payments))
	for _, pay := range payments {
		items = append(items, paymentDTO.FromPaymentModel(pay))
	}
	return helper.JsonList(c, "Daftar pembayaran", items,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}
