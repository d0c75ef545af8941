package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	scheduleRoutes "schoolku_backend/internals/features/finance/fee_schedules/route"
	structureRoutes "schoolku_backend/internals/features/finance/fee_structures/route"
	invoiceRoutes "schoolku_backend/internals/features/finance/invoices/route"
	paymentRoutes "schoolku_backend/internals/features/finance/payments/route"
	notifService "schoolku_backend/internals/features/notifications/service"
	classRoutes "schoolku_backend/internals/features/school/classes/route"
	enrollmentRoutes "schoolku_backend/internals/features/school/enrollments/route"
	studentRoutes "schoolku_backend/internals/features/school/students/route"
	middlewares "schoolku_backend/internals/middlewares"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, pub *notifService.Publisher) {
	// ===================== ADMIN (per branch, JWT wajib) =====================
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", middlewares.AuthMiddleware())

	log.Println("[INFO] Setting up SchoolRoutes...")
	classRoutes.ClassAdminRoutes(admin, db)
	studentRoutes.StudentAdminRoutes(admin, db)
	enrollmentRoutes.EnrollmentAdminRoutes(admin, db)

	log.Println("[INFO] Setting up FinanceRoutes...")
	structureRoutes.FeeStructureAdminRoutes(admin, db)
	scheduleRoutes.FeeScheduleAdminRoutes(admin, db)
	invoiceRoutes.InvoiceAdminRoutes(admin, db, pub)
	paymentRoutes.PaymentAdminRoutes(admin, db, pub)
}
