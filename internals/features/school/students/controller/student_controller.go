package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	studentModel "schoolku_backend/internals/features/school/students/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type StudentController struct {
	DB *gorm.DB
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{DB: db}
}

// GET /api/a/students?section_id=&status=&q=
func (h *StudentController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "name", "asc", helper.AdminOpts)
	allowed := map[string]string{
		"name":       "student_name",
		"code":       "student_code",
		"created_at": "student_created_at",
	}
	orderClause, err := p.SafeOrderClause(allowed, "name")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&studentModel.StudentModel{}).
		Where("student_branch_id = ?", branchID)
	if raw := strings.TrimSpace(c.Query("section_id")); raw != "" {
		sectionID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "section_id tidak valid")
		}
		q = q.Where("student_section_id = ?", sectionID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("student_status = ?", status)
	}
	if keyword := strings.TrimSpace(c.Query("q")); keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		q = q.Where("lower(student_name) LIKE ? OR lower(student_code) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var students []studentModel.StudentModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&students).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "Daftar siswa", students,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}
