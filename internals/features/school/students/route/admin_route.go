package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	studentController "schoolku_backend/internals/features/school/students/controller"
)

// Mount: StudentAdminRoutes(app.Group("/api/a"), db)
func StudentAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := studentController.NewStudentController(db)

	r.Get("/students", ctl.List) // GET /api/a/students
}
