// Package http wires the payment core's inbound surface: it assembles
// repositories, gateway adapters and usecases, and mounts them on a gin
// engine.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	checkoutGateway "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	checkoutUsecases "github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/usecases"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/cache"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/config"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/email"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/bkash"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/nagad"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/gateway/tokencache"
	"github.com/FlexpointLLC/sellium-sub001/internal/infrastructure/repository"
	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/http/handlers"
	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/http/middleware"
	"github.com/FlexpointLLC/sellium-sub001/internal/interfaces/http/routes"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	engine          *gin.Engine
	checkoutHandler *handlers.CheckoutHandler
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	orderRepo := repository.NewOrderRepository(db)
	sessionRepo := repository.NewPaymentSessionRepository(db)
	storeRepo := repository.NewStoreRepository(db)

	gatewayTimeout := time.Duration(cfg.Payment.GatewayTimeoutSeconds) * time.Second

	registry := checkoutGateway.NewRegistry()
	registry.Register(paymentvo.GatewayBkash,
		bkash.NewClient(tokencache.New(), gatewayTimeout, log.Named("bkash")))
	registry.Register(paymentvo.GatewayNagad,
		nagad.NewClient(cfg.Payment.NagadClientIP, cfg.Payment.NagadClientType, gatewayTimeout, log.Named("nagad")))

	createPaymentUC := checkoutUsecases.NewCreatePaymentUseCase(
		orderRepo, sessionRepo, storeRepo, registry, cfg.Payment.CallbackBaseURL, log)

	cartStore := cache.NewRedisCartStore(redisClient)
	settlePaymentUC := checkoutUsecases.NewSettlePaymentUseCase(
		orderRepo, sessionRepo, storeRepo, registry, cartStore, log)

	if cfg.Email.SMTPHost != "" {
		notifier := email.NewSMTPMerchantNotifier(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		}, storeRepo)
		settlePaymentUC.SetMerchantNotifier(notifier)
	}

	checkoutHandler := handlers.NewCheckoutHandler(createPaymentUC, settlePaymentUC, log)

	return &Router{
		engine:          engine,
		checkoutHandler: checkoutHandler,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(log logger.Interface) {
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.Recovery())

	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupCheckoutRoutes(r.engine, &routes.CheckoutRouteConfig{
		CheckoutHandler: r.checkoutHandler,
	})
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
