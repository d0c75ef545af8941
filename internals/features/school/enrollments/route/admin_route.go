package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	enrollmentController "schoolku_backend/internals/features/school/enrollments/controller"
)

// Mount: EnrollmentAdminRoutes(app.Group("/api/a"), db)
func EnrollmentAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := enrollmentController.NewEnrollmentController(db)

	enrollments := r.Group("/enrollments")
	enrollments.Post("/transfer", ctl.TransferStudent) // POST /api/a/enrollments/transfer
	enrollments.Get("/", ctl.List)                     // GET  /api/a/enrollments
}
