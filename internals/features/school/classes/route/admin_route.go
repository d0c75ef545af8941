package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	classController "schoolku_backend/internals/features/school/classes/controller"
)

// Mount: ClassAdminRoutes(app.Group("/api/a"), db)
func ClassAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := classController.NewSectionController(db)

	r.Get("/classes", ctl.ListClasses)   // GET /api/a/classes
	r.Get("/sections", ctl.ListSections) // GET /api/a/sections
}
