package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	scheduleDTO "schoolku_backend/internals/features/finance/fee_schedules/dto"
	scheduleModel "schoolku_backend/internals/features/finance/fee_schedules/model"
	scheduleService "schoolku_backend/internals/features/finance/fee_schedules/service"
	structureModel "schoolku_backend/internals/features/finance/fee_structures/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type FeeScheduleController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewFeeScheduleController(db *gorm.DB) *FeeScheduleController {
	return &FeeScheduleController{DB: db, Validate: validator.New()}
}

// POST /api/a/fee-schedules
func (h *FeeScheduleController) Create(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req scheduleDTO.CreateFeeScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	if req.SectionID != nil && req.ClassID != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Scope pilih salah satu: class atau section")
	}

	// Struktur harus milik branch yang sama.
	var cnt int64
	if err := h.DB.Model(&structureModel.FeeStructureModel{}).
		Where("fee_structure_id = ? AND fee_structure_branch_id = ?", req.StructureID, branchID).
		Count(&cnt).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal cek fee structure")
	}
	if cnt == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Fee structure tidak ditemukan")
	}

	sch := req.ToModel(branchID)
	if err := h.DB.Create(&sch).Error; err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.JsonCreated(c, "Fee schedule berhasil dibuat", scheduleDTO.FromFeeScheduleModel(sch))
}

// PUT /api/a/fee-schedules/:id
func (h *FeeScheduleController) Update(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sch, err := h.loadSchedule(c, branchID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req scheduleDTO.UpdateFeeScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	if req.Recurrence != nil {
		sch.FeeScheduleRecurrence = *req.Recurrence
	}
	if req.DueDayOfMonth != nil {
		sch.FeeScheduleDueDayOfMonth = *req.DueDayOfMonth
	}
	if req.StartDate != nil {
		sch.FeeScheduleStartDate = req.StartDate
	}
	if req.EndDate != nil {
		sch.FeeScheduleEndDate = req.EndDate
	}

	// Save baris utuh supaya hook update memvalidasi ulang recurrence/due day.
	if err := h.DB.Save(sch).Error; err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.JsonUpdated(c, "Fee schedule berhasil diperbarui", scheduleDTO.FromFeeScheduleModel(*sch))
}

// POST /api/a/fee-schedules/:id/pause
func (h *FeeScheduleController) Pause(c *fiber.Ctx) error {
	return h.setStatus(c, scheduleModel.FeeScheduleStatusPaused, "Fee schedule dijeda")
}

// POST /api/a/fee-schedules/:id/resume
func (h *FeeScheduleController) Resume(c *fiber.Ctx) error {
	return h.setStatus(c, scheduleModel.FeeScheduleStatusActive, "Fee schedule diaktifkan kembali")
}

func (h *FeeScheduleController) setStatus(c *fiber.Ctx, status, message string) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sch, err := h.loadSchedule(c, branchID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	if err := h.DB.Model(&scheduleModel.FeeScheduleModel{}).
		Where("fee_schedule_id = ?", sch.FeeScheduleID).
		Update("fee_schedule_status", status).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengubah status")
	}
	sch.FeeScheduleStatus = status
	return helper.JsonUpdated(c, message, scheduleDTO.FromFeeScheduleModel(*sch))
}

// GET /api/a/fee-schedules/:id/preview?from=2026-01-01&count=6
func (h *FeeScheduleController) Preview(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sch, err := h.loadSchedule(c, branchID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	from := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Format from harus YYYY-MM-DD")
		}
		from = parsed
	}
	count := c.QueryInt("count", 6)
	if count < 1 || count > 24 {
		return helper.JsonError(c, fiber.StatusBadRequest, "count harus 1..24")
	}

	dueDates, err := scheduleService.UpcomingDueDates(sch, from, count)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.JsonOK(c, "Preview jatuh tempo", scheduleDTO.FeeSchedulePreviewResponse{
		FeeScheduleID: sch.FeeScheduleID,
		From:          from,
		DueDates:      dueDates,
	})
}

// GET /api/a/fee-schedules/:id
func (h *FeeScheduleController) GetByID(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	sch, err := h.loadSchedule(c, branchID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Detail fee schedule", scheduleDTO.FromFeeScheduleModel(*sch))
}

// GET /api/a/fee-schedules
func (h *FeeScheduleController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)
	allowed := map[string]string{
		"created_at": "fee_schedule_created_at",
		"recurrence": "fee_schedule_recurrence",
		"status":     "fee_schedule_status",
	}
	orderClause, err := p.SafeOrderClause(allowed, "created_at")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&scheduleModel.FeeScheduleModel{}).
		Where("fee_schedule_branch_id = ?", branchID)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("fee_schedule_status = ?", status)
	}
	if raw := strings.TrimSpace(c.Query("structure_id")); raw != "" {
		structureID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "structure_id tidak valid")
		}
		q = q.Where("fee_schedule_structure_id = ?", structureID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var schedules []scheduleModel.FeeScheduleModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&schedules).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	items := make([]scheduleDTO.FeeScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		items = append(items, scheduleDTO.FromFeeScheduleModel(s))
	}
	return helper.JsonList(c, "Daftar fee schedule", items,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

func (h *FeeScheduleController) loadSchedule(c *fiber.Ctx, branchID uuid.UUID) (*scheduleModel.FeeScheduleModel, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "ID tidak valid")
	}
	var sch scheduleModel.FeeScheduleModel
	if err := h.DB.
		Where("fee_schedule_id = ? AND fee_schedule_branch_id = ?", id, branchID).
		First(&sch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Fee schedule tidak ditemukan")
		}
		return nil, err
	}
	return &sch, nil
}
