package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FeeComponentCategoryTuition   = "tuition"
	FeeComponentCategoryTransport = "transport"
	FeeComponentCategoryLab       = "lab"
	FeeComponentCategoryLibrary   = "library"
	FeeComponentCategoryOther     = "other"
)

type FeeComponentModel struct {
	FeeComponentID          uuid.UUID `gorm:"column:fee_component_id;type:uuid;primaryKey" json:"fee_component_id"`
	FeeComponentBranchID    uuid.UUID `gorm:"column:fee_component_branch_id;type:uuid;not null;index" json:"fee_component_branch_id"`
	FeeComponentStructureID uuid.UUID `gorm:"column:fee_component_structure_id;type:uuid;not null;index" json:"fee_component_structure_id"`

	FeeComponentName     string `gorm:"column:fee_component_name;type:text;not null" json:"fee_component_name"`
	FeeComponentCategory string `gorm:"column:fee_component_category;type:varchar(40);not null;default:'other'" json:"fee_component_category"`

	// Nominal tetap, rupiah (minor unit), tidak boleh negatif.
	FeeComponentAmountIDR int `gorm:"column:fee_component_amount_idr;not null;check:fee_component_amount_idr >= 0" json:"fee_component_amount_idr"`

	FeeComponentPosition int `gorm:"column:fee_component_position;not null;default:0" json:"fee_component_position"`

	FeeComponentCreatedAt time.Time      `gorm:"column:fee_component_created_at;autoCreateTime" json:"fee_component_created_at"`
	FeeComponentUpdatedAt time.Time      `gorm:"column:fee_component_updated_at;autoUpdateTime" json:"fee_component_updated_at"`
	FeeComponentDeletedAt gorm.DeletedAt `gorm:"column:fee_component_deleted_at;index" json:"fee_component_deleted_at,omitempty"`
}

func (FeeComponentModel) TableName() string { return "fee_components" }

func (m *FeeComponentModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeComponentID == uuid.Nil {
		m.FeeComponentID = uuid.New()
	}
	if m.FeeComponentStructureID == uuid.Nil {
		return fmt.Errorf("fee_component_structure_id is required")
	}
	if m.FeeComponentAmountIDR < 0 {
		return fmt.Errorf("fee_component_amount_idr tidak boleh negatif")
	}
	return nil
}
