package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	scheduleModel "schoolku_backend/internals/features/finance/fee_schedules/model"
	scheduleService "schoolku_backend/internals/features/finance/fee_schedules/service"
	structureModel "schoolku_backend/internals/features/finance/fee_structures/model"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	notifService "schoolku_backend/internals/features/notifications/service"
	studentModel "schoolku_backend/internals/features/school/students/model"
)

type GeneratorService struct {
	DB        *gorm.DB
	Publisher *notifService.Publisher
}

func NewGeneratorService(db *gorm.DB, pub *notifService.Publisher) *GeneratorService {
	return &GeneratorService{DB: db, Publisher: pub}
}

type GenerateResult struct {
	Period    string    `json:"period"`
	DueDate   time.Time `json:"due_date"`
	AmountIDR int       `json:"amount_idr"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
}

// item snapshot komponen yang dibekukan di invoice.
type componentSnapshot struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	AmountIDR int    `json:"amount_idr"`
}

// Generate membuat tagihan satu periode untuk seluruh siswa dalam scope
// schedule. Idempoten: unique (branch, structure, student, period) +
// ON CONFLICT DO NOTHING — generate ulang (atau dua pemanggil konkuren)
// tidak pernah menduplikasi tagihan; Created = jumlah yang benar-benar
// dibuat, bukan ukuran populasi.
//
// Satu transaksi untuk seluruh batch: kalau struktur biaya hilang atau
// insert error (selain duplikat), tidak ada state parsial yang tersisa.
func (s *GeneratorService) Generate(ctx context.Context, branchID, scheduleID uuid.UUID, asOf time.Time) (GenerateResult, error) {
	var res GenerateResult

	// 1) Load schedule (tenant-scoped)
	var sch scheduleModel.FeeScheduleModel
	if err := s.DB.WithContext(ctx).
		Where("fee_schedule_id = ? AND fee_schedule_branch_id = ?", scheduleID, branchID).
		First(&sch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, fiber.NewError(fiber.StatusNotFound, "fee schedule tidak ditemukan")
		}
		return res, err
	}

	// 2) Paused / di luar jendela berlaku → no-op (created = 0)
	if sch.IsPaused() || !sch.InWindow(asOf) {
		return res, nil
	}

	// 3) Satu periode untuk seluruh batch
	period, err := scheduleService.ComputePeriodForSchedule(&sch, asOf)
	if err != nil {
		return res, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res.Period = period.Key
	res.DueDate = period.DueDate

	// 4) Snapshot + populasi + insert dalam SATU transaksi: komponen yang
	// dibekukan dan daftar siswa dibaca dari potret data yang sama dengan
	// batch insert-nya.
	type createdInvoice struct {
		invoiceID uuid.UUID
		studentID uuid.UUID
	}
	var created []createdInvoice

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Snapshot amount dari komponen struktur saat ini — edit struktur
		// belakangan tidak boleh mengubah tagihan yang sudah dibuat.
		var structure structureModel.FeeStructureModel
		if err := tx.
			Where("fee_structure_id = ? AND fee_structure_branch_id = ?", sch.FeeScheduleStructureID, branchID).
			First(&structure).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "fee structure tidak ditemukan")
			}
			return err
		}

		var components []structureModel.FeeComponentModel
		if err := tx.
			Where("fee_component_structure_id = ?", structure.FeeStructureID).
			Order("fee_component_position ASC").
			Find(&components).Error; err != nil {
			return err
		}

		amount := 0
		snapshot := make([]componentSnapshot, 0, len(components))
		for _, comp := range components {
			amount += comp.FeeComponentAmountIDR
			snapshot = append(snapshot, componentSnapshot{
				Name:      comp.FeeComponentName,
				Category:  comp.FeeComponentCategory,
				AmountIDR: comp.FeeComponentAmountIDR,
			})
		}
		snapshotJSON, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		res.AmountIDR = amount

		// Populasi: siswa aktif branch ini, di-intersect scope class/section
		students, err := resolveTargetStudents(tx, branchID, &sch)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			return nil
		}

		// Insert per siswa, duplikat = skip
		for _, st := range students {
			inv := invoiceModel.InvoiceModel{
				InvoiceBranchID:           branchID,
				InvoiceStructureID:        structure.FeeStructureID,
				InvoiceStudentID:          st.StudentID,
				InvoiceScheduleID:         &sch.FeeScheduleID,
				InvoicePeriod:             period.Key,
				InvoiceAmountIDR:          amount,
				InvoiceComponentsSnapshot: snapshotJSON,
				InvoiceDueDate:            period.DueDate,
				InvoiceStatus:             invoiceModel.InvoiceStatusPending,
			}
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "invoice_branch_id"},
					{Name: "invoice_structure_id"},
					{Name: "invoice_student_id"},
					{Name: "invoice_period"},
				},
				DoNothing: true,
			}).Create(&inv)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				res.Created++
				created = append(created, createdInvoice{invoiceID: inv.InvoiceID, studentID: st.StudentID})
			} else {
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		res.AmountIDR, res.Created, res.Skipped = 0, 0, 0
		return res, err
	}

	// Event setelah commit — kunci idempoten invoice_id+period.
	for _, ci := range created {
		s.Publisher.InvoiceCreated(ctx, branchID, ci.invoiceID, ci.studentID, period.Key)
	}
	return res, nil
}

func resolveTargetStudents(tx *gorm.DB, branchID uuid.UUID, sch *scheduleModel.FeeScheduleModel) ([]studentModel.StudentModel, error) {
	q := tx.
		Where("student_branch_id = ? AND student_status = ?", branchID, studentModel.StudentStatusActive)
	if sch.FeeScheduleSectionID != nil {
		q = q.Where("student_section_id = ?", *sch.FeeScheduleSectionID)
	} else if sch.FeeScheduleClassID != nil {
		q = q.Where("student_class_id = ?", *sch.FeeScheduleClassID)
	}

	var students []studentModel.StudentModel
	if err := q.Order("student_created_at ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
