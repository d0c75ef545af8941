package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	m "schoolku_backend/internals/features/finance/fee_structures/model"
)

/* =========================================================
   CREATE
   ========================================================= */

type CreateFeeComponentRequest struct {
	Name      string `json:"fee_component_name" validate:"required,min=1,max=120"`
	Category  string `json:"fee_component_category" validate:"omitempty,oneof=tuition transport lab library other"`
	AmountIDR int    `json:"fee_component_amount_idr" validate:"gte=0"`
}

type CreateFeeStructureRequest struct {
	Name       string                      `json:"fee_structure_name" validate:"required,min=1,max=160"`
	Grades     []string                    `json:"fee_structure_grades" validate:"omitempty,dive,min=1"`
	Components []CreateFeeComponentRequest `json:"components" validate:"omitempty,dive"`
}

func (r *CreateFeeStructureRequest) ToModel(branchID uuid.UUID) m.FeeStructureModel {
	return m.FeeStructureModel{
		FeeStructureBranchID: branchID,
		FeeStructureName:     r.Name,
		FeeStructureGrades:   pq.StringArray(r.Grades),
	}
}

func (r *CreateFeeComponentRequest) ToModel(branchID, structureID uuid.UUID, position int) m.FeeComponentModel {
	category := r.Category
	if category == "" {
		category = m.FeeComponentCategoryOther
	}
	return m.FeeComponentModel{
		FeeComponentBranchID:    branchID,
		FeeComponentStructureID: structureID,
		FeeComponentName:        r.Name,
		FeeComponentCategory:    category,
		FeeComponentAmountIDR:   r.AmountIDR,
		FeeComponentPosition:    position,
	}
}

/* =========================================================
   RESPONSE
   ========================================================= */

type FeeComponentResponse struct {
	FeeComponentID        uuid.UUID `json:"fee_component_id"`
	FeeComponentName      string    `json:"fee_component_name"`
	FeeComponentCategory  string    `json:"fee_component_category"`
	FeeComponentAmountIDR int       `json:"fee_component_amount_idr"`
	FeeComponentPosition  int       `json:"fee_component_position"`
}

type FeeStructureResponse struct {
	FeeStructureID        uuid.UUID              `json:"fee_structure_id"`
	FeeStructureName      string                 `json:"fee_structure_name"`
	FeeStructureGrades    []string               `json:"fee_structure_grades,omitempty"`
	FeeStructureTotalIDR  int                    `json:"fee_structure_total_idr"`
	Components            []FeeComponentResponse `json:"components"`
	FeeStructureCreatedAt time.Time              `json:"fee_structure_created_at"`
}

func FromFeeComponentModel(c m.FeeComponentModel) FeeComponentResponse {
	return FeeComponentResponse{
		FeeComponentID:        c.FeeComponentID,
		FeeComponentName:      c.FeeComponentName,
		FeeComponentCategory:  c.FeeComponentCategory,
		FeeComponentAmountIDR: c.FeeComponentAmountIDR,
		FeeComponentPosition:  c.FeeComponentPosition,
	}
}

func FromFeeStructureModel(s m.FeeStructureModel, components []m.FeeComponentModel) FeeStructureResponse {
	resp := FeeStructureResponse{
		FeeStructureID:        s.FeeStructureID,
		FeeStructureName:      s.FeeStructureName,
		FeeStructureGrades:    []string(s.FeeStructureGrades),
		Components:            make([]FeeComponentResponse, 0, len(components)),
		FeeStructureCreatedAt: s.FeeStructureCreatedAt,
	}
	for _, c := range components {
		resp.FeeStructureTotalIDR += c.FeeComponentAmountIDR
		resp.Components = append(resp.Components, FromFeeComponentModel(c))
	}
	return resp
}
