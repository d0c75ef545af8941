package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	scheduleController "schoolku_backend/internals/features/finance/fee_schedules/controller"
)

// Mount: FeeScheduleAdminRoutes(app.Group("/api/a"), db)
func FeeScheduleAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := scheduleController.NewFeeScheduleController(db)

	schedules := r.Group("/fee-schedules")
	schedules.Post("/", ctl.Create)              // POST /api/a/fee-schedules
	schedules.Get("/", ctl.List)                 // GET  /api/a/fee-schedules
	schedules.Get("/:id", ctl.GetByID)           // GET  /api/a/fee-schedules/:id
	schedules.Put("/:id", ctl.Update)            // PUT  /api/a/fee-schedules/:id
	schedules.Post("/:id/pause", ctl.Pause)      // POST /api/a/fee-schedules/:id/pause
	schedules.Post("/:id/resume", ctl.Resume)    // POST /api/a/fee-schedules/:id/resume
	schedules.Get("/:id/preview", ctl.Preview)   // GET  /api/a/fee-schedules/:id/preview
}
