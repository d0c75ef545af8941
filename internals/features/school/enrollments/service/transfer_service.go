package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	classModel "schoolku_backend/internals/features/school/classes/model"
	enrollmentModel "schoolku_backend/internals/features/school/enrollments/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
	helper "schoolku_backend/internals/helpers"
)

type TransferService struct {
	DB *gorm.DB
}

func NewTransferService(db *gorm.DB) *TransferService {
	return &TransferService{DB: db}
}

type TransferResult struct {
	ClosedEnrollmentID uuid.UUID  `json:"closed_enrollment_id"`
	NewEnrollmentID    uuid.UUID  `json:"new_enrollment_id"`
	StudentID          uuid.UUID  `json:"student_id"`
	FromSectionID      uuid.UUID  `json:"from_section_id"`
	ToSectionID        uuid.UUID  `json:"to_section_id"`
	EffectiveDate      time.Time  `json:"effective_date"`
	NewClassID         uuid.UUID  `json:"new_class_id"`
	FromEnrollmentEnd  *time.Time `json:"from_enrollment_end,omitempty"`
}

// Transfer memindahkan siswa ke section lain secara atomik: enrollment lama
// ditutup (end_date = tanggal efektif) dan enrollment baru dibuka dalam satu
// transaksi. Tidak pernah ada jendela di mana siswa punya nol atau dua
// enrollment terbuka — partial unique index di student_enrollments menjadi
// penjaga terakhir kalau dua transfer konkuren lolos sampai insert.
func (s *TransferService) Transfer(ctx context.Context, branchID, studentID, newSectionID uuid.UUID, effective time.Time) (TransferResult, error) {
	var res TransferResult
	if effective.IsZero() {
		effective = time.Now().UTC()
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Validasi target dulu — kalau section tujuan tidak ada, tidak boleh
		// ada mutasi apa pun yang sempat terjadi.
		var section classModel.SectionModel
		if err := tx.
			Where("section_id = ? AND section_branch_id = ?", newSectionID, branchID).
			First(&section).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "section tujuan tidak ditemukan")
			}
			return err
		}

		var student studentModel.StudentModel
		if err := tx.
			Where("student_id = ? AND student_branch_id = ?", studentID, branchID).
			First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "siswa tidak ditemukan")
			}
			return err
		}

		var open enrollmentModel.EnrollmentModel
		err := tx.
			Where("enrollment_student_id = ? AND enrollment_branch_id = ? AND enrollment_end_date IS NULL",
				studentID, branchID).
			First(&open).Error
		hasOpen := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if hasOpen && open.EnrollmentSectionID == newSectionID {
			return fiber.NewError(fiber.StatusConflict, "siswa sudah terdaftar di section tersebut")
		}

		if hasOpen {
			if err := tx.Model(&enrollmentModel.EnrollmentModel{}).
				Where("enrollment_id = ?", open.EnrollmentID).
				Updates(map[string]interface{}{
					"enrollment_end_date": effective,
					"enrollment_status":   enrollmentModel.EnrollmentStatusTransferred,
				}).Error; err != nil {
				return err
			}
			res.ClosedEnrollmentID = open.EnrollmentID
			res.FromSectionID = open.EnrollmentSectionID
			res.FromEnrollmentEnd = &effective
		}

		next := enrollmentModel.EnrollmentModel{
			EnrollmentBranchID:  branchID,
			EnrollmentStudentID: studentID,
			EnrollmentSectionID: section.SectionID,
			EnrollmentClassID:   section.SectionClassID,
			EnrollmentStartDate: effective,
			EnrollmentStatus:    enrollmentModel.EnrollmentStatusActive,
		}
		if err := tx.Create(&next).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				// Transfer lain menang duluan.
				return fiber.NewError(fiber.StatusConflict, "transfer lain sedang berjalan untuk siswa ini")
			}
			return err
		}

		// Kolom denormalized di students ikut pindah supaya scope schedule
		// (class/section) langsung melihat posisi baru.
		if err := tx.Model(&studentModel.StudentModel{}).
			Where("student_id = ?", studentID).
			Updates(map[string]interface{}{
				"student_class_id":   section.SectionClassID,
				"student_section_id": section.SectionID,
			}).Error; err != nil {
			return err
		}

		res.NewEnrollmentID = next.EnrollmentID
		res.StudentID = studentID
		res.ToSectionID = section.SectionID
		res.NewClassID = section.SectionClassID
		res.EffectiveDate = effective
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}
