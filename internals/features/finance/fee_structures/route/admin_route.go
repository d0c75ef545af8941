package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	structureController "schoolku_backend/internals/features/finance/fee_structures/controller"
)

// Mount: FeeStructureAdminRoutes(app.Group("/api/a"), db)
func FeeStructureAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := structureController.NewFeeStructureController(db)

	structures := r.Group("/fee-structures")
	structures.Post("/", ctl.Create)                                      // POST   /api/a/fee-structures
	structures.Get("/", ctl.List)                                         // GET    /api/a/fee-structures
	structures.Get("/:id", ctl.GetByID)                                   // GET    /api/a/fee-structures/:id
	structures.Delete("/:id", ctl.Delete)                                 // DELETE /api/a/fee-structures/:id
	structures.Post("/:id/components", ctl.AddComponent)                  // POST   /api/a/fee-structures/:id/components
	structures.Delete("/:id/components/:component_id", ctl.RemoveComponent) // DELETE /api/a/fee-structures/:id/components/:component_id
}
