package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "schoolku_backend/internals/databases"
	scheduleModel "schoolku_backend/internals/features/finance/fee_schedules/model"
	structureModel "schoolku_backend/internals/features/finance/fee_structures/model"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	classModel "schoolku_backend/internals/features/school/classes/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	branchID    uuid.UUID
	structureID uuid.UUID
	scheduleID  uuid.UUID
	students    []uuid.UUID
}

func seedBilling(t *testing.T, db *gorm.DB, studentCount int) fixture {
	t.Helper()
	branchID := uuid.New()
	require.NoError(t, db.Create(&studentModel.BranchModel{
		BranchID:   branchID,
		BranchName: "Cabang Pusat",
		BranchSlug: "cabang-" + branchID.String()[:8],
	}).Error)

	structure := structureModel.FeeStructureModel{
		FeeStructureBranchID: branchID,
		FeeStructureName:     "SPP Reguler",
	}
	require.NoError(t, db.Create(&structure).Error)
	require.NoError(t, db.Create(&structureModel.FeeComponentModel{
		FeeComponentBranchID:    branchID,
		FeeComponentStructureID: structure.FeeStructureID,
		FeeComponentName:        "SPP Bulanan",
		FeeComponentCategory:    structureModel.FeeComponentCategoryTuition,
		FeeComponentAmountIDR:   500_000,
	}).Error)
	require.NoError(t, db.Create(&structureModel.FeeComponentModel{
		FeeComponentBranchID:    branchID,
		FeeComponentStructureID: structure.FeeStructureID,
		FeeComponentName:        "Transportasi",
		FeeComponentCategory:    structureModel.FeeComponentCategoryTransport,
		FeeComponentAmountIDR:   150_000,
		FeeComponentPosition:    1,
	}).Error)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	schedule := scheduleModel.FeeScheduleModel{
		FeeScheduleBranchID:      branchID,
		FeeScheduleStructureID:   structure.FeeStructureID,
		FeeScheduleRecurrence:    scheduleModel.RecurrenceMonthly,
		FeeScheduleDueDayOfMonth: 10,
		FeeScheduleStartDate:     &start,
	}
	require.NoError(t, db.Create(&schedule).Error)

	var students []uuid.UUID
	for i := 0; i < studentCount; i++ {
		st := studentModel.StudentModel{
			StudentBranchID: branchID,
			StudentName:     "Siswa",
			StudentCode:     uuid.NewString()[:8],
			StudentStatus:   studentModel.StudentStatusActive,
		}
		require.NoError(t, db.Create(&st).Error)
		students = append(students, st.StudentID)
	}

	return fixture{
		branchID:    branchID,
		structureID: structure.FeeStructureID,
		scheduleID:  schedule.FeeScheduleID,
		students:    students,
	}
}

func TestGenerate_MembuatInvoiceUntukSemuaSiswaAktif(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)

	asOf := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, "2026-03", res.Period)
	assert.Equal(t, 650_000, res.AmountIDR)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), res.DueDate)

	var invoices []invoiceModel.InvoiceModel
	require.NoError(t, db.Find(&invoices).Error)
	require.Len(t, invoices, 3)
	for _, inv := range invoices {
		assert.Equal(t, "2026-03", inv.InvoicePeriod)
		assert.Equal(t, 650_000, inv.InvoiceAmountIDR)
		assert.Equal(t, invoiceModel.InvoiceStatusPending, inv.InvoiceStatus)

		var snapshot []map[string]interface{}
		require.NoError(t, json.Unmarshal(inv.InvoiceComponentsSnapshot, &snapshot))
		require.Len(t, snapshot, 2)
		assert.Equal(t, "SPP Bulanan", snapshot[0]["name"])
	}
}

func TestGenerate_IdempotenUntukPeriodeSama(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)
	asOf := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	first, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)

	// Generate ulang di tanggal lain pada bucket yang sama → semua skip.
	again, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.Skipped)

	var count int64
	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestGenerate_SiswaBaruHanyaMenambahYangBelumAda(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 2)
	svc := NewGeneratorService(db, nil)
	asOf := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
	require.NoError(t, err)

	// Siswa baru masuk di tengah periode.
	baru := studentModel.StudentModel{
		StudentBranchID: fx.branchID,
		StudentName:     "Siswa Baru",
		StudentCode:     "BARU-01",
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&baru).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
}

func TestGenerate_SnapshotTidakBerubahSetelahEditKomponen(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 1)
	svc := NewGeneratorService(db, nil)

	_, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Naikkan tarif setelah invoice Maret terbit.
	require.NoError(t, db.Model(&structureModel.FeeComponentModel{}).
		Where("fee_component_structure_id = ?", fx.structureID).
		Update("fee_component_amount_idr", 999_000).Error)

	var inv invoiceModel.InvoiceModel
	require.NoError(t, db.Where("invoice_period = ?", "2026-03").First(&inv).Error)
	assert.Equal(t, 650_000, inv.InvoiceAmountIDR)

	// Periode berikutnya pakai tarif baru.
	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 999_000*2, res.AmountIDR)
}

func TestGenerate_SchedulePausedTidakMembuatApapun(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)

	require.NoError(t, db.Model(&scheduleModel.FeeScheduleModel{}).
		Where("fee_schedule_id = ?", fx.scheduleID).
		Update("fee_schedule_status", scheduleModel.FeeScheduleStatusPaused).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	var count int64
	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGenerate_DiLuarJendelaSchedule(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 2)
	svc := NewGeneratorService(db, nil)

	end := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(&scheduleModel.FeeScheduleModel{}).
		Where("fee_schedule_id = ?", fx.scheduleID).
		Update("fee_schedule_end_date", end).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
}

func TestGenerate_SiswaNonAktifDilewati(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)

	require.NoError(t, db.Model(&studentModel.StudentModel{}).
		Where("student_id = ?", fx.students[0]).
		Update("student_status", studentModel.StudentStatusInactive).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
}

func TestGenerate_ScopeSectionHanyaSiswaSectionItu(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)

	class := classModel.ClassModel{
		ClassBranchID: fx.branchID,
		ClassName:     "Kelas 7",
		ClassGrade:    "7",
	}
	require.NoError(t, db.Create(&class).Error)
	section := classModel.SectionModel{
		SectionBranchID: fx.branchID,
		SectionClassID:  class.ClassID,
		SectionName:     "7A",
	}
	require.NoError(t, db.Create(&section).Error)

	// Hanya satu siswa yang duduk di section target.
	require.NoError(t, db.Model(&studentModel.StudentModel{}).
		Where("student_id = ?", fx.students[0]).
		Updates(map[string]interface{}{
			"student_class_id":   class.ClassID,
			"student_section_id": section.SectionID,
		}).Error)
	require.NoError(t, db.Model(&scheduleModel.FeeScheduleModel{}).
		Where("fee_schedule_id = ?", fx.scheduleID).
		Update("fee_schedule_section_id", section.SectionID).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	var inv invoiceModel.InvoiceModel
	require.NoError(t, db.First(&inv).Error)
	assert.Equal(t, fx.students[0], inv.InvoiceStudentID)
}

func TestGenerate_TenantLainTidakTerpengaruh(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 2)
	lain := seedBilling(t, db, 2)
	svc := NewGeneratorService(db, nil)
	asOf := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	// Schedule branch lain tidak bisa diakses lintas tenant.
	_, err := svc.Generate(context.Background(), fx.branchID, lain.scheduleID, asOf)
	require.Error(t, err)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	var count int64
	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).
		Where("invoice_branch_id = ?", lain.branchID).
		Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGenerate_ScheduleTidakDitemukan(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 1)
	svc := NewGeneratorService(db, nil)

	_, err := svc.Generate(context.Background(), fx.branchID, uuid.New(), time.Now().UTC())
	require.Error(t, err)
}

func TestGenerate_StrukturHilangTidakMembuatApapun(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 3)
	svc := NewGeneratorService(db, nil)

	// Struktur dihapus di antara pembuatan schedule dan generate: seluruh
	// batch gagal tanpa invoice parsial.
	require.NoError(t, db.Unscoped().
		Where("fee_structure_id = ?", fx.structureID).
		Delete(&structureModel.FeeStructureModel{}).Error)

	res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID,
		time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, res.AmountIDR)

	var count int64
	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGenerate_KonkurenTidakMenduplikasi(t *testing.T) {
	db := setupTestDB(t)
	fx := seedBilling(t, db, 5)
	svc := NewGeneratorService(db, nil)
	asOf := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	totals := make([]GenerateResult, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			res, err := svc.Generate(context.Background(), fx.branchID, fx.scheduleID, asOf)
			assert.NoError(t, err)
			totals[idx] = res
		}(i)
	}
	wg.Wait()

	createdTotal := 0
	for _, res := range totals {
		createdTotal += res.Created
	}
	assert.Equal(t, 5, createdTotal)

	var count int64
	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}
