package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "schoolku_backend/internals/databases"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	paymentModel "schoolku_backend/internals/features/finance/payments/model"
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

// seedInvoice membuat satu invoice PENDING 650rb, periode Maret 2026,
// jatuh tempo 10 Maret.
func seedInvoice(t *testing.T, db *gorm.DB, branchID uuid.UUID) invoiceModel.InvoiceModel {
	t.Helper()
	student := studentModel.StudentModel{
		StudentBranchID: branchID,
		StudentName:     "Siswa",
		StudentCode:     uuid.NewString()[:8],
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)

	inv := invoiceModel.InvoiceModel{
		InvoiceBranchID:    branchID,
		InvoiceStructureID: uuid.New(),
		InvoiceStudentID:   student.StudentID,
		InvoicePeriod:      "2026-03",
		InvoiceAmountIDR:   650_000,
		InvoiceDueDate:     time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		InvoiceStatus:      invoiceModel.InvoiceStatusPending,
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func seedInvoiceForStudent(t *testing.T, db *gorm.DB, branchID, studentID uuid.UUID, period string, amount int) invoiceModel.InvoiceModel {
	t.Helper()
	inv := invoiceModel.InvoiceModel{
		InvoiceBranchID:    branchID,
		InvoiceStructureID: uuid.New(),
		InvoiceStudentID:   studentID,
		InvoicePeriod:      period,
		InvoiceAmountIDR:   amount,
		InvoiceDueDate:     time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		InvoiceStatus:      invoiceModel.InvoiceStatusPending,
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func paidOn(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestApplyPayment_LunasTepatWaktu(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 8),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPaid, res.InvoiceStatus)
	assert.Equal(t, 650_000, res.CollectedIDR)
	assert.False(t, res.Replayed)
}

func TestApplyPayment_PartialLaluLunasJadiInstallments(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 300_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPartial, res.InvoiceStatus)

	res, err = svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-002",
		AmountIDR: 350_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPaidInstallments, res.InvoiceStatus)
	assert.Equal(t, 650_000, res.CollectedIDR)
}

func TestApplyPayment_SetelahJatuhTempo(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusOverduePaid, res.InvoiceStatus)
}

func TestApplyPayment_SebelumPeriodeMulai(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.February, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPaidEarly, res.InvoiceStatus)
}

func TestApplyPayment_GagalLaluSukses(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-FAIL",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusFailed,
		PaidAt:    paidOn(2026, time.March, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPaymentFailed, res.InvoiceStatus)

	// Sukses sesudahnya menang atas FAILED — failed hanya menandai
	// invoice yang belum pernah sukses.
	res, err = svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-OK",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceModel.InvoiceStatusPaid, res.InvoiceStatus)
}

func TestApplyPayment_ReplayTidakMenggandakan(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	in := ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 8),
	}
	first, err := svc.ApplyPayment(context.Background(), branchID, in)
	require.NoError(t, err)

	replay, err := svc.ApplyPayment(context.Background(), branchID, in)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.PaymentID, replay.PaymentID)
	assert.Equal(t, invoiceModel.InvoiceStatusPaid, replay.InvoiceStatus)
	assert.Equal(t, 650_000, replay.CollectedIDR)

	var count int64
	require.NoError(t, db.Model(&paymentModel.PaymentModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApplyPayment_InvoiceTerminalDitolak(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).
		Where("invoice_id = ?", inv.InvoiceID).
		Update("invoice_status", invoiceModel.InvoiceStatusCancelled).Error)

	_, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 8),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&paymentModel.PaymentModel{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestApplyPayment_InvoiceTidakDitemukan(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReconcilerService(db, nil)

	_, err := svc.ApplyPayment(context.Background(), uuid.New(), ApplyPaymentInput{
		InvoiceID: uuid.New(),
		Reference: "TRX-001",
		AmountIDR: 100,
		Status:    paymentModel.PaymentStatusSuccess,
	})
	require.Error(t, err)
}

func TestApplyPayment_TenantLainTidakBisaBayar(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	_, err := svc.ApplyPayment(context.Background(), uuid.New(), ApplyPaymentInput{
		InvoiceID: inv.InvoiceID,
		Reference: "TRX-001",
		AmountIDR: 650_000,
		Status:    paymentModel.PaymentStatusSuccess,
	})
	require.Error(t, err)
}

func TestApplyBulkPayment_MelunasiBeberapaInvoice(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	student := studentModel.StudentModel{
		StudentBranchID: branchID,
		StudentName:     "Siswa",
		StudentCode:     "S-001",
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)

	invA := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-01", 500_000)
	invB := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-02", 500_000)
	invC := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-03", 500_000)
	svc := NewReconcilerService(db, nil)

	res, err := svc.ApplyBulkPayment(context.Background(), branchID, ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID, invC.InvoiceID},
		Reference:  "BULK-001",
		AmountIDR:  1_500_000,
		PaidAt:     paidOn(2026, time.March, 8),
	})
	require.NoError(t, err)
	assert.Len(t, res.InvoiceIDs, 3)
	assert.NotEqual(t, uuid.Nil, res.BulkGroupID)

	// Semua invoice PAID_BULK dengan group id yang sama.
	var invoices []invoiceModel.InvoiceModel
	require.NoError(t, db.Where("invoice_student_id = ?", student.StudentID).Find(&invoices).Error)
	for _, inv := range invoices {
		assert.Equal(t, invoiceModel.InvoiceStatusPaidBulk, inv.InvoiceStatus)
		require.NotNil(t, inv.InvoiceBulkGroupID)
		assert.Equal(t, res.BulkGroupID, *inv.InvoiceBulkGroupID)
	}

	// Satu baris payment dengan meta daftar invoice tercakup.
	var payments []paymentModel.PaymentModel
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, 1_500_000, payments[0].PaymentAmountIDR)
	covered, ok := payments[0].PaymentMeta["covered_invoice_ids"].([]interface{})
	require.True(t, ok)
	assert.Len(t, covered, 3)
}

func TestApplyBulkPayment_NominalHarusPasOutstanding(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	student := studentModel.StudentModel{
		StudentBranchID: branchID,
		StudentName:     "Siswa",
		StudentCode:     "S-001",
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)
	invA := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-01", 500_000)
	invB := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-02", 500_000)
	svc := NewReconcilerService(db, nil)

	// Partial di invoice pertama mengurangi outstanding gabungan.
	_, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
		InvoiceID: invA.InvoiceID,
		Reference: "TRX-PART",
		AmountIDR: 200_000,
		Status:    paymentModel.PaymentStatusSuccess,
		PaidAt:    paidOn(2026, time.March, 1),
	})
	require.NoError(t, err)

	_, err = svc.ApplyBulkPayment(context.Background(), branchID, ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID},
		Reference:  "BULK-001",
		AmountIDR:  1_000_000, // harusnya 800rb
	})
	require.Error(t, err)

	res, err := svc.ApplyBulkPayment(context.Background(), branchID, ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID},
		Reference:  "BULK-002",
		AmountIDR:  800_000,
	})
	require.NoError(t, err)
	assert.Equal(t, 800_000, res.AmountIDR)
}

func TestApplyPayment_KonkurenPartialTetapKonsisten(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	inv := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	// Dua cicilan jalan bersamaan; status akhir harus diturunkan dari kedua
	// pembayaran, bukan dari potret yang hanya melihat salah satunya.
	amounts := []int{300_000, 350_000}
	done := make(chan struct{}, len(amounts))
	for i, amt := range amounts {
		go func(i, amt int) {
			defer func() { done <- struct{}{} }()
			_, err := svc.ApplyPayment(context.Background(), branchID, ApplyPaymentInput{
				InvoiceID: inv.InvoiceID,
				Reference: fmt.Sprintf("TRX-%03d", i),
				AmountIDR: amt,
				Status:    paymentModel.PaymentStatusSuccess,
				PaidAt:    paidOn(2026, time.March, 5),
			})
			assert.NoError(t, err)
		}(i, amt)
	}
	for range amounts {
		<-done
	}

	var check invoiceModel.InvoiceModel
	require.NoError(t, db.Where("invoice_id = ?", inv.InvoiceID).First(&check).Error)
	assert.Equal(t, invoiceModel.InvoiceStatusPaidInstallments, check.InvoiceStatus)

	collected, cnt, err := successTotals(db, inv.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, 650_000, collected)
	assert.EqualValues(t, 2, cnt)
}

func TestApplyBulkPayment_ReplayMengembalikanHasilAsli(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	student := studentModel.StudentModel{
		StudentBranchID: branchID,
		StudentName:     "Siswa",
		StudentCode:     "S-001",
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)
	invA := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-01", 500_000)
	invB := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-02", 500_000)
	svc := NewReconcilerService(db, nil)

	in := ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID},
		Reference:  "BULK-001",
		AmountIDR:  1_000_000,
		PaidAt:     paidOn(2026, time.March, 8),
	}
	first, err := svc.ApplyBulkPayment(context.Background(), branchID, in)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// Kiriman ulang event yang sama: bukan error walaupun semua invoice
	// sudah terminal PAID_BULK, dan tidak menambah baris payment.
	replay, err := svc.ApplyBulkPayment(context.Background(), branchID, in)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.PaymentID, replay.PaymentID)
	assert.Equal(t, first.BulkGroupID, replay.BulkGroupID)
	assert.Equal(t, first.AmountIDR, replay.AmountIDR)
	assert.ElementsMatch(t, first.InvoiceIDs, replay.InvoiceIDs)

	var count int64
	require.NoError(t, db.Model(&paymentModel.PaymentModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var invoices []invoiceModel.InvoiceModel
	require.NoError(t, db.Where("invoice_student_id = ?", student.StudentID).Find(&invoices).Error)
	for _, inv := range invoices {
		assert.Equal(t, invoiceModel.InvoiceStatusPaidBulk, inv.InvoiceStatus)
	}
}

func TestApplyBulkPayment_BedaSiswaDitolak(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	invA := seedInvoice(t, db, branchID)
	invB := seedInvoice(t, db, branchID)
	svc := NewReconcilerService(db, nil)

	_, err := svc.ApplyBulkPayment(context.Background(), branchID, ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID},
		Reference:  "BULK-001",
		AmountIDR:  1_300_000,
	})
	require.Error(t, err)
}

func TestApplyBulkPayment_InvoiceTerminalMenggagalkanSemua(t *testing.T) {
	db := setupTestDB(t)
	branchID := uuid.New()
	student := studentModel.StudentModel{
		StudentBranchID: branchID,
		StudentName:     "Siswa",
		StudentCode:     "S-001",
		StudentStatus:   studentModel.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)
	invA := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-01", 500_000)
	invB := seedInvoiceForStudent(t, db, branchID, student.StudentID, "2026-02", 500_000)
	svc := NewReconcilerService(db, nil)

	require.NoError(t, db.Model(&invoiceModel.InvoiceModel{}).
		Where("invoice_id = ?", invB.InvoiceID).
		Update("invoice_status", invoiceModel.InvoiceStatusPaid).Error)

	_, err := svc.ApplyBulkPayment(context.Background(), branchID, ApplyBulkPaymentInput{
		InvoiceIDs: []uuid.UUID{invA.InvoiceID, invB.InvoiceID},
		Reference:  "BULK-001",
		AmountIDR:  1_000_000,
	})
	require.Error(t, err)

	// Tidak ada mutasi parsial: invoice pertama tetap PENDING.
	var check invoiceModel.InvoiceModel
	require.NoError(t, db.Where("invoice_id = ?", invA.InvoiceID).First(&check).Error)
	assert.Equal(t, invoiceModel.InvoiceStatusPending, check.InvoiceStatus)
}
