package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/http/handlers"
)

// CheckoutRouteConfig holds dependencies for checkout payment routes.
type CheckoutRouteConfig struct {
	CheckoutHandler *handlers.CheckoutHandler
}

// SetupCheckoutRoutes configures checkout payment routes.
func SetupCheckoutRoutes(engine *gin.Engine, cfg *CheckoutRouteConfig) {
	checkout := engine.Group("/api/checkout")
	{
		checkout.POST("/payments", cfg.CheckoutHandler.CreatePayment)
		checkout.GET("/payments/callback", cfg.CheckoutHandler.PaymentCallback)
	}
}
