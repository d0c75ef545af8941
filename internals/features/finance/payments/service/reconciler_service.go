package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	paymentModel "schoolku_backend/internals/features/finance/payments/model"
	notifService "schoolku_backend/internals/features/notifications/service"
)

type ReconcilerService struct {
	DB        *gorm.DB
	Publisher *notifService.Publisher
}

func NewReconcilerService(db *gorm.DB, pub *notifService.Publisher) *ReconcilerService {
	return &ReconcilerService{DB: db, Publisher: pub}
}

type ApplyPaymentInput struct {
	InvoiceID uuid.UUID
	Reference string
	AmountIDR int
	Status    string // SUCCESS | FAILED
	Method    string
	Gateway   string
	PaidAt    time.Time
	Note      *string
}

type ApplyPaymentResult struct {
	PaymentID     uuid.UUID                  `json:"payment_id"`
	InvoiceID     uuid.UUID                  `json:"invoice_id"`
	InvoiceStatus invoiceModel.InvoiceStatus `json:"invoice_status"`
	CollectedIDR  int                        `json:"collected_idr"`
	Replayed      bool                       `json:"replayed"`
}

// ApplyPayment mencatat satu event pembayaran dan menurunkan status invoice
// dari seluruh riwayat pembayarannya. Replay (reference sama di invoice yang
// sama) adalah no-op: payment tidak diduplikasi dan status tidak berubah.
func (s *ReconcilerService) ApplyPayment(ctx context.Context, branchID uuid.UUID, in ApplyPaymentInput) (ApplyPaymentResult, error) {
	var res ApplyPaymentResult

	if in.Reference == "" {
		return res, fiber.NewError(fiber.StatusBadRequest, "payment reference wajib diisi")
	}
	if in.Status != paymentModel.PaymentStatusSuccess && in.Status != paymentModel.PaymentStatusFailed {
		return res, fiber.NewError(fiber.StatusBadRequest, "payment status harus SUCCESS atau FAILED")
	}
	if in.AmountIDR < 0 {
		return res, fiber.NewError(fiber.StatusBadRequest, "amount tidak boleh negatif")
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now().UTC()
	}
	if in.Method == "" {
		in.Method = paymentModel.PaymentMethodGateway
	}
	if in.Gateway == "" {
		in.Gateway = "manual"
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock baris invoice supaya dua pembayaran konkuren menghitung status
		// dari riwayat yang sudah saling terlihat, bukan saling menimpa.
		var inv invoiceModel.InvoiceModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("invoice_id = ? AND invoice_branch_id = ?", in.InvoiceID, branchID).
			First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "invoice tidak ditemukan")
			}
			return err
		}

		// Replay dicek sebelum guard terminal: event yang sudah pernah
		// tercatat harus tetap no-op walaupun invoice-nya kini sudah lunas.
		var existing paymentModel.PaymentModel
		lerr := tx.
			Where("payment_invoice_id = ? AND payment_reference = ? AND payment_bulk_group_id IS NULL",
				inv.InvoiceID, in.Reference).
			First(&existing).Error
		if lerr == nil {
			res.Replayed = true
			res.PaymentID = existing.PaymentID
			res.InvoiceID = inv.InvoiceID
			res.InvoiceStatus = inv.InvoiceStatus
			collected, _, err := successTotals(tx, inv.InvoiceID)
			if err != nil {
				return err
			}
			res.CollectedIDR = collected
			return nil
		}
		if !errors.Is(lerr, gorm.ErrRecordNotFound) {
			return lerr
		}

		if inv.InvoiceStatus.IsTerminal() {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("invoice sudah %s, pembayaran ditolak", inv.InvoiceStatus))
		}

		pay := paymentModel.PaymentModel{
			PaymentBranchID:  branchID,
			PaymentInvoiceID: inv.InvoiceID,
			PaymentStudentID: inv.InvoiceStudentID,
			PaymentAmountIDR: in.AmountIDR,
			PaymentMethod:    in.Method,
			PaymentGateway:   in.Gateway,
			PaymentReference: in.Reference,
			PaymentStatus:    in.Status,
			PaymentPaidAt:    in.PaidAt,
			PaymentNote:      in.Note,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "payment_invoice_id"},
				{Name: "payment_reference"},
			},
			DoNothing: true,
		}).Create(&pay)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Replay: event dengan reference ini sudah pernah tercatat.
			res.Replayed = true
			res.InvoiceID = inv.InvoiceID
			res.InvoiceStatus = inv.InvoiceStatus
			var existing paymentModel.PaymentModel
			if err := tx.
				Where("payment_invoice_id = ? AND payment_reference = ?", inv.InvoiceID, in.Reference).
				First(&existing).Error; err == nil {
				res.PaymentID = existing.PaymentID
			}
			collected, _, err := successTotals(tx, inv.InvoiceID)
			if err != nil {
				return err
			}
			res.CollectedIDR = collected
			return nil
		}
		res.PaymentID = pay.PaymentID

		status, collected, err := deriveStatus(tx, &inv)
		if err != nil {
			return err
		}
		if status != inv.InvoiceStatus {
			if err := tx.Model(&invoiceModel.InvoiceModel{}).
				Where("invoice_id = ?", inv.InvoiceID).
				Update("invoice_status", status).Error; err != nil {
				return err
			}
		}
		res.InvoiceID = inv.InvoiceID
		res.InvoiceStatus = status
		res.CollectedIDR = collected
		return nil
	})
	if err != nil {
		return ApplyPaymentResult{}, err
	}

	if !res.Replayed {
		s.Publisher.PaymentApplied(ctx, branchID, res.InvoiceID, res.PaymentID, string(res.InvoiceStatus))
	}
	return res, nil
}

// successTotals menjumlahkan pembayaran SUCCESS non-bulk sebuah invoice.
// Pembayaran bulk dikecualikan di sini: nilainya menutup beberapa invoice
// sekaligus sehingga tidak boleh dihitung per invoice.
func successTotals(tx *gorm.DB, invoiceID uuid.UUID) (total int, count int64, err error) {
	type row struct {
		Total int
		Cnt   int64
	}
	var r row
	err = tx.Model(&paymentModel.PaymentModel{}).
		Select("COALESCE(SUM(payment_amount_idr),0) AS total, COUNT(*) AS cnt").
		Where("payment_invoice_id = ? AND payment_status = ? AND payment_bulk_group_id IS NULL",
			invoiceID, paymentModel.PaymentStatusSuccess).
		Scan(&r).Error
	return r.Total, r.Cnt, err
}

// deriveStatus menghitung status invoice murni dari riwayat pembayarannya,
// bukan dari status sebelumnya, supaya urutan event konkuren tetap
// menghasilkan status akhir yang sama.
func deriveStatus(tx *gorm.DB, inv *invoiceModel.InvoiceModel) (invoiceModel.InvoiceStatus, int, error) {
	total, count, err := successTotals(tx, inv.InvoiceID)
	if err != nil {
		return "", 0, err
	}

	if total == 0 {
		// Belum ada pembayaran sukses. FAILED hanya menandai invoice kalau
		// memang tidak ada sukses sama sekali.
		var failed int64
		if err := tx.Model(&paymentModel.PaymentModel{}).
			Where("payment_invoice_id = ? AND payment_status = ?", inv.InvoiceID, paymentModel.PaymentStatusFailed).
			Count(&failed).Error; err != nil {
			return "", 0, err
		}
		if failed > 0 {
			return invoiceModel.InvoiceStatusPaymentFailed, total, nil
		}
		return invoiceModel.InvoiceStatusPending, total, nil
	}

	if total < inv.InvoiceAmountIDR {
		return invoiceModel.InvoiceStatusPartial, total, nil
	}

	// Lunas.
	if count > 1 {
		return invoiceModel.InvoiceStatusPaidInstallments, total, nil
	}
	var last paymentModel.PaymentModel
	if err := tx.
		Where("payment_invoice_id = ? AND payment_status = ? AND payment_bulk_group_id IS NULL",
			inv.InvoiceID, paymentModel.PaymentStatusSuccess).
		Order("payment_paid_at DESC").
		First(&last).Error; err != nil {
		return "", 0, err
	}
	paidAt := last.PaymentPaidAt
	dueEnd := inv.InvoiceDueDate.AddDate(0, 0, 1) // due date inklusif sepanjang hari
	periodStart, perr := inv.PeriodStart()
	switch {
	case !paidAt.Before(dueEnd):
		return invoiceModel.InvoiceStatusOverduePaid, total, nil
	case perr == nil && paidAt.Before(periodStart):
		return invoiceModel.InvoiceStatusPaidEarly, total, nil
	default:
		return invoiceModel.InvoiceStatusPaid, total, nil
	}
}

type ApplyBulkPaymentInput struct {
	InvoiceIDs []uuid.UUID
	Reference  string
	AmountIDR  int
	Method     string
	Gateway    string
	PaidAt     time.Time
	Note       *string
}

type ApplyBulkPaymentResult struct {
	PaymentID   uuid.UUID   `json:"payment_id"`
	BulkGroupID uuid.UUID   `json:"bulk_group_id"`
	InvoiceIDs  []uuid.UUID `json:"invoice_ids"`
	AmountIDR   int         `json:"amount_idr"`
	Replayed    bool        `json:"replayed"`
}

// ApplyBulkPayment melunasi beberapa invoice satu siswa dengan satu
// pembayaran. Nominal harus persis sama dengan total outstanding gabungan;
// semua invoice pindah ke PAID_BULK dalam satu transaksi atau tidak sama
// sekali. Replay (reference sama pada invoice yang sama) mengembalikan
// hasil aslinya tanpa error.
func (s *ReconcilerService) ApplyBulkPayment(ctx context.Context, branchID uuid.UUID, in ApplyBulkPaymentInput) (ApplyBulkPaymentResult, error) {
	var res ApplyBulkPaymentResult

	if len(in.InvoiceIDs) < 2 {
		return res, fiber.NewError(fiber.StatusBadRequest, "bulk payment butuh minimal 2 invoice")
	}
	if in.Reference == "" {
		return res, fiber.NewError(fiber.StatusBadRequest, "payment reference wajib diisi")
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now().UTC()
	}
	if in.Method == "" {
		in.Method = paymentModel.PaymentMethodGateway
	}
	if in.Gateway == "" {
		in.Gateway = "manual"
	}
	seen := make(map[uuid.UUID]struct{}, len(in.InvoiceIDs))
	for _, id := range in.InvoiceIDs {
		if _, dup := seen[id]; dup {
			return res, fiber.NewError(fiber.StatusBadRequest, "invoice duplikat dalam daftar bulk")
		}
		seen[id] = struct{}{}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Replay: bulk dengan reference yang sama sudah pernah tercatat —
		// kembalikan hasil aslinya tanpa menyentuh invoice (yang kini sudah
		// PAID_BULK dan terminal).
		var existing paymentModel.PaymentModel
		lerr := tx.
			Where("payment_branch_id = ? AND payment_reference = ? AND payment_invoice_id IN ? AND payment_bulk_group_id IS NOT NULL",
				branchID, in.Reference, in.InvoiceIDs).
			First(&existing).Error
		if lerr == nil {
			res.Replayed = true
			res.PaymentID = existing.PaymentID
			res.BulkGroupID = *existing.PaymentBulkGroupID
			res.AmountIDR = existing.PaymentAmountIDR
			var ids []uuid.UUID
			if err := tx.Model(&invoiceModel.InvoiceModel{}).
				Where("invoice_bulk_group_id = ?", existing.PaymentBulkGroupID).
				Pluck("invoice_id", &ids).Error; err != nil {
				return err
			}
			res.InvoiceIDs = ids
			return nil
		}
		if !errors.Is(lerr, gorm.ErrRecordNotFound) {
			return lerr
		}

		var invoices []invoiceModel.InvoiceModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("invoice_id IN ? AND invoice_branch_id = ?", in.InvoiceIDs, branchID).
			Find(&invoices).Error; err != nil {
			return err
		}
		if len(invoices) != len(in.InvoiceIDs) {
			return fiber.NewError(fiber.StatusNotFound, "sebagian invoice tidak ditemukan")
		}

		studentID := invoices[0].InvoiceStudentID
		outstanding := 0
		for i := range invoices {
			inv := &invoices[i]
			if inv.InvoiceStudentID != studentID {
				return fiber.NewError(fiber.StatusBadRequest, "bulk payment hanya untuk satu siswa")
			}
			if inv.InvoiceStatus.IsTerminal() {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("invoice %s sudah %s", inv.InvoiceID, inv.InvoiceStatus))
			}
			collected, _, err := successTotals(tx, inv.InvoiceID)
			if err != nil {
				return err
			}
			outstanding += inv.InvoiceAmountIDR - collected
		}
		if in.AmountIDR != outstanding {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("amount %d tidak sama dengan total outstanding %d", in.AmountIDR, outstanding))
		}

		groupID := uuid.New()
		covered := make([]interface{}, 0, len(invoices))
		for i := range invoices {
			covered = append(covered, invoices[i].InvoiceID.String())
		}

		// Satu baris payment, ditautkan ke invoice pertama; daftar lengkap
		// invoice tercakup disimpan di meta dan group id.
		pay := paymentModel.PaymentModel{
			PaymentBranchID:    branchID,
			PaymentInvoiceID:   invoices[0].InvoiceID,
			PaymentStudentID:   studentID,
			PaymentAmountIDR:   in.AmountIDR,
			PaymentMethod:      in.Method,
			PaymentGateway:     in.Gateway,
			PaymentReference:   in.Reference,
			PaymentStatus:      paymentModel.PaymentStatusSuccess,
			PaymentPaidAt:      in.PaidAt,
			PaymentBulkGroupID: &groupID,
			PaymentMeta:        datatypes.JSONMap{"covered_invoice_ids": covered},
			PaymentNote:        in.Note,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "payment_invoice_id"},
				{Name: "payment_reference"},
			},
			DoNothing: true,
		}).Create(&pay)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "reference sudah pernah dipakai di invoice ini")
		}

		ids := make([]uuid.UUID, 0, len(invoices))
		for i := range invoices {
			ids = append(ids, invoices[i].InvoiceID)
		}
		if err := tx.Model(&invoiceModel.InvoiceModel{}).
			Where("invoice_id IN ?", ids).
			Updates(map[string]interface{}{
				"invoice_status":        invoiceModel.InvoiceStatusPaidBulk,
				"invoice_bulk_group_id": groupID,
			}).Error; err != nil {
			return err
		}

		res.PaymentID = pay.PaymentID
		res.BulkGroupID = groupID
		res.InvoiceIDs = ids
		res.AmountIDR = in.AmountIDR
		return nil
	})
	if err != nil {
		return ApplyBulkPaymentResult{}, err
	}

	if !res.Replayed {
		for _, id := range res.InvoiceIDs {
			s.Publisher.PaymentApplied(ctx, branchID, id, res.PaymentID, string(invoiceModel.InvoiceStatusPaidBulk))
		}
	}
	return res, nil
}
