package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	invoiceController "schoolku_backend/internals/features/finance/invoices/controller"
	invoiceService "schoolku_backend/internals/features/finance/invoices/service"
	notifService "schoolku_backend/internals/features/notifications/service"
)

// Mount: InvoiceAdminRoutes(app.Group("/api/a"), db, publisher)
func InvoiceAdminRoutes(r fiber.Router, db *gorm.DB, pub *notifService.Publisher) {
	generator := invoiceService.NewGeneratorService(db, pub)
	ctl := invoiceController.NewInvoiceController(db, generator)

	invoices := r.Group("/invoices")
	invoices.Post("/generate", ctl.Generate)  // POST /api/a/invoices/generate
	invoices.Get("/", ctl.List)               // GET  /api/a/invoices
	invoices.Get("/:id", ctl.GetByID)         // GET  /api/a/invoices/:id
	invoices.Post("/:id/cancel", ctl.Cancel)  // POST /api/a/invoices/:id/cancel
}
