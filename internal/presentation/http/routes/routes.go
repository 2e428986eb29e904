package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/clinic-ledger-api/internal/config"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/internal/infrastructure/database"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/handler"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/middleware"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Voucher  *handler.VoucherHandler
	Report   *handler.ReportHandler
	Customer *handler.CustomerHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.UserRateLimiter
	// Now is the clock for idempotency key expiry; nil means time.Now
	Now func() time.Time
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/profile", h.Auth.GetProfile)

	registerVoucherRoutes(protected, h, deps)
	registerReportRoutes(protected, h)
	registerCustomerRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerVoucherRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	read := middleware.RequirePermission(database.PermViewVouchers, database.PermManageVouchers)
	write := middleware.RequirePermission(database.PermManageVouchers)

	vouchers := protected.Group("/vouchers")
	{
		vouchers.GET("", read, h.Voucher.List)
		// a resubmitted voucher must not charge the customer twice
		vouchers.POST("", write, middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			Now:  deps.Now,
		}), h.Voucher.Create)
		vouchers.GET("/number/:number", read, h.Voucher.GetByNumber)
		vouchers.GET("/:id", read, h.Voucher.Get)
		vouchers.PUT("/:id", write, h.Voucher.Update)
		vouchers.DELETE("/:id", write, h.Voucher.Delete)
		vouchers.POST("/:id/print", middleware.RequirePermission(database.PermManagePrinter), h.Printer.PrintVoucher)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers) {
	reports := protected.Group("/reports/vouchers")
	reports.Use(middleware.RequirePermission(database.PermViewReports))
	{
		reports.GET("/daily", h.Report.Daily)
		reports.GET("/statistics", h.Report.Statistics)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	customers.Use(middleware.RequirePermission(database.PermViewCustomers))
	{
		customers.GET("", h.Customer.List)
		customers.GET("/:id", h.Customer.Get)
		customers.GET("/:id/services", h.Customer.ListServices)
		customers.GET("/:id/vouchers", middleware.RequirePermission(database.PermViewVouchers), h.Voucher.ListForCustomer)
		customers.GET("/:id/balance", h.Report.CustomerBalance)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	printerGroup.Use(middleware.RequirePermission(database.PermManagePrinter))
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
	}
}
