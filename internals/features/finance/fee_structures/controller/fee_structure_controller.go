package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	structureDTO "schoolku_backend/internals/features/finance/fee_structures/dto"
	structureModel "schoolku_backend/internals/features/finance/fee_structures/model"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type FeeStructureController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewFeeStructureController(db *gorm.DB) *FeeStructureController {
	return &FeeStructureController{DB: db, Validate: validator.New()}
}

// POST /api/a/fee-structures
func (h *FeeStructureController) Create(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req structureDTO.CreateFeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	structure := req.ToModel(branchID)
	var components []structureModel.FeeComponentModel

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&structure).Error; err != nil {
			return err
		}
		for i, comp := range req.Components {
			cm := comp.ToModel(branchID, structure.FeeStructureID, i)
			if err := tx.Create(&cm).Error; err != nil {
				return err
			}
			components = append(components, cm)
		}
		return nil
	}); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat fee structure")
	}

	return helper.JsonCreated(c, "Fee structure berhasil dibuat",
		structureDTO.FromFeeStructureModel(structure, components))
}

// POST /api/a/fee-structures/:id/components
func (h *FeeStructureController) AddComponent(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	structureID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}

	var req structureDTO.CreateFeeComponentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	structure, components, err := h.loadStructure(branchID, structureID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	cm := req.ToModel(branchID, structure.FeeStructureID, len(components))
	if err := h.DB.Create(&cm).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menambah komponen")
	}
	components = append(components, cm)

	// Snapshot di invoice lama tidak tersentuh — perubahan komponen hanya
	// berlaku untuk generate berikutnya.
	return helper.JsonCreated(c, "Komponen berhasil ditambahkan",
		structureDTO.FromFeeStructureModel(*structure, components))
}

// DELETE /api/a/fee-structures/:id/components/:component_id
func (h *FeeStructureController) RemoveComponent(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	structureID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}
	componentID, err := uuid.Parse(strings.TrimSpace(c.Params("component_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID komponen tidak valid")
	}

	res := h.DB.
		Where("fee_component_id = ? AND fee_component_structure_id = ? AND fee_component_branch_id = ?",
			componentID, structureID, branchID).
		Delete(&structureModel.FeeComponentModel{})
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghapus komponen")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Komponen tidak ditemukan")
	}
	return helper.JsonDeleted(c, "Komponen berhasil dihapus", fiber.Map{"fee_component_id": componentID})
}

// DELETE /api/a/fee-structures/:id
// Ditolak kalau sudah ada invoice yang menunjuk struktur ini — histori
// penagihan tidak boleh kehilangan induknya.
func (h *FeeStructureController) Delete(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	structureID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		var structure structureModel.FeeStructureModel
		if err := tx.
			Where("fee_structure_id = ? AND fee_structure_branch_id = ?", structureID, branchID).
			First(&structure).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Fee structure tidak ditemukan")
			}
			return err
		}

		var invoiceCount int64
		if err := tx.Model(&invoiceModel.InvoiceModel{}).
			Where("invoice_structure_id = ?", structureID).
			Count(&invoiceCount).Error; err != nil {
			return err
		}
		if invoiceCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Fee structure sudah dipakai invoice, tidak bisa dihapus")
		}

		if err := tx.
			Where("fee_component_structure_id = ?", structureID).
			Delete(&structureModel.FeeComponentModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&structure).Error
	}); err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonDeleted(c, "Fee structure berhasil dihapus", fiber.Map{"fee_structure_id": structureID})
}

// GET /api/a/fee-structures
func (h *FeeStructureController) List(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)
	allowed := map[string]string{
		"created_at": "fee_structure_created_at",
		"name":       "fee_structure_name",
	}
	orderClause, err := p.SafeOrderClause(allowed, "created_at")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "sort_by tidak valid")
	}

	q := h.DB.Model(&structureModel.FeeStructureModel{}).
		Where("fee_structure_branch_id = ?", branchID)
	if grade := strings.TrimSpace(c.Query("grade")); grade != "" {
		q = q.Where("? = ANY(fee_structure_grades)", grade)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung data")
	}

	var structures []structureModel.FeeStructureModel
	if err := q.Order(orderClause).Limit(p.Limit()).Offset(p.Offset()).Find(&structures).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	items := make([]structureDTO.FeeStructureResponse, 0, len(structures))
	for _, s := range structures {
		var components []structureModel.FeeComponentModel
		if err := h.DB.
			Where("fee_component_structure_id = ?", s.FeeStructureID).
			Order("fee_component_position ASC").
			Find(&components).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil komponen")
		}
		items = append(items, structureDTO.FromFeeStructureModel(s, components))
	}

	return helper.JsonList(c, "Daftar fee structure", items,
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// GET /api/a/fee-structures/:id
func (h *FeeStructureController) GetByID(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	structureID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID tidak valid")
	}

	structure, components, err := h.loadStructure(branchID, structureID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Detail fee structure",
		structureDTO.FromFeeStructureModel(*structure, components))
}

func (h *FeeStructureController) loadStructure(branchID, structureID uuid.UUID) (*structureModel.FeeStructureModel, []structureModel.FeeComponentModel, error) {
	var structure structureModel.FeeStructureModel
	if err := h.DB.
		Where("fee_structure_id = ? AND fee_structure_branch_id = ?", structureID, branchID).
		First(&structure).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Fee structure tidak ditemukan")
		}
		return nil, nil, err
	}
	var components []structureModel.FeeComponentModel
	if err := h.DB.
		Where("fee_component_structure_id = ?", structure.FeeStructureID).
		Order("fee_component_position ASC").
		Find(&components).Error; err != nil {
		return nil, nil, err
	}
	return &structure, components, nil
}
