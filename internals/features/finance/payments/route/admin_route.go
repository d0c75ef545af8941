package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentController "schoolku_backend/internals/features/finance/payments/controller"
	paymentService "schoolku_backend/internals/features/finance/payments/service"
	notifService "schoolku_backend/internals/features/notifications/service"
)

// Mount: PaymentAdminRoutes(app.Group("/api/a"), db, publisher)
func PaymentAdminRoutes(r fiber.Router, db *gorm.DB, pub *notifService.Publisher) {
	reconciler := paymentService.NewReconcilerService(db, pub)
	ctl := paymentController.NewPaymentController(db, reconciler)

	payments := r.Group("/payments")
	payments.Post("/", ctl.Apply)          // POST /api/a/payments
	payments.Post("/bulk", ctl.ApplyBulk)  // POST /api/a/payments/bulk
	payments.Get("/", ctl.List)            // GET  /api/a/payments
}
