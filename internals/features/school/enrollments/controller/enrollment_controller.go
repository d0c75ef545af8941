package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	enrollmentDTO "schoolku_backend/internals/features/school/enrollments/dto"
	enrollmentModel "schoolku_backend/internals/features/school/enrollments/model"
	enrollmentService "schoolku_backend/internals/features/school/enrollments/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type EnrollmentController struct {
	DB       *gorm.DB
	Transfer *enrollmentService.TransferService
	Validate *validator.Validate
}

func NewEnrollmentController(db *gorm.DB) *EnrollmentController {
	return &EnrollmentController{
		DB:       db,
		Transfer: enrollmentService.NewTransferService(db),
		Validate: validator.New(),
	}
}

// POST /api/a/enrollments/transfer
func (h *EnrollmentController) TransferStudent(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req enrollmentDTO.TransferStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	effective := time.Now().UTC()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}

	result, err := h.Transfer.Transfer(c.Context(), branchID, req.StudentID, req.NewSectionID, effective)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Siswa berhasil dipindahkan", result)
}

// GET /api/a/enrollments?student_id=&section_id=&open=true
func (h *EnrollmentController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "start_date", "desc", helper.AdminOpts)
	allowed := map[string]string{
		"start_date": "enrollment_start_date",
		"created_at": "enrollment_created_at",
	}
	orderClause, err := p.SafeOrderClause(allowed, "start_date")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&enrollmentModel.EnrollmentModel{}).
		Where("enrollment_branch_id = ?", branchID)
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		studentID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id tidak valid")
		}
		q = q.Where("enrollment_student_id = ?", studentID)
	}
	if raw := strings.TrimSpace(c.Query("section_id")); raw != "" {
		sectionID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "section_id tidak valid")
		}
		q = q.Where("enrollment_section_id = ?", sectionID)
	}
	if strings.EqualFold(c.Query("open"), "true") {
		q = q.Where("enrollment_end_date IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var enrollments []enrollmentModel.EnrollmentModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&enrollments).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	items := make([]enrollmentDTO.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, enrollmentDTO.FromEnrollmentModel(e))
	}
	return helper.JsonList(c, "Daftar enrollment", items,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}
