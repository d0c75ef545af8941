package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	classModel "schoolku_backend/internals/features/school/classes/model"
	enrollmentModel "schoolku_backend/internals/features/school/enrollments/model"
	studentModel "schoolku_backend/internals/features/school/students/model"
	scheduleModel "schoolku_backend/internals/features/finance/fee_schedules/model"
	structureModel "schoolku_backend/internals/features/finance/fee_structures/model"
	invoiceModel "schoolku_backend/internals/features/finance/invoices/model"
	paymentModel "schoolku_backend/internals/features/finance/payments/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolku&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	// jalankan ringan supaya koneksi/pool “keisi” & siap
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

// Migrate menjalankan automigrate semua model inti + index partial
// yang tidak bisa diekspresikan lewat tag gorm.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&studentModel.BranchModel{},
		&classModel.ClassModel{},
		&classModel.SectionModel{},
		&studentModel.StudentModel{},
		&enrollmentModel.EnrollmentModel{},
		&structureModel.FeeStructureModel{},
		&structureModel.FeeComponentModel{},
		&scheduleModel.FeeScheduleModel{},
		&invoiceModel.InvoiceModel{},
		&paymentModel.PaymentModel{},
	); err != nil {
		return err
	}

	// Maks. 1 enrollment terbuka per siswa (CAS untuk transfer konkuren)
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_enrollment_open_per_student
		ON student_enrollments (enrollment_student_id)
		WHERE enrollment_end_date IS NULL AND enrollment_deleted_at IS NULL
	`).Error; err != nil {
		return err
	}
	return nil
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
