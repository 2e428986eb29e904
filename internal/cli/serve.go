package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/clinic-ledger-api/internal/application/service"
	"github.com/sangkips/clinic-ledger-api/internal/config"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/clinic-ledger-api/internal/infrastructure/repository"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/handler"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/middleware"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/routes"
	"github.com/sangkips/clinic-ledger-api/pkg/printer"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const idempotencySweepInterval = time.Hour

func newServeCmd(load configLoader) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()

			if cfg.App.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Env)
			if err != nil {
				return err
			}

			if migrate {
				if err := database.AutoMigrate(db); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				if err := database.SeedDefaultData(db, cfg.Seed); err != nil {
					log.Printf("Warning: Failed to seed default data: %v", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, db)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations and seed data before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	location := cfg.Ledger.Location()

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Repositories
	transactor := infraRepo.NewTransactor(db)
	userRepo := infraRepo.NewUserRepository(db)
	clinicRepo := infraRepo.NewClinicRepository(db)
	customerRepo := infraRepo.NewCustomerRepository(db)
	serviceRepo := infraRepo.NewTreatmentServiceRepository(db)
	voucherRepo := infraRepo.NewVoucherRepository(db)
	detailRepo := infraRepo.NewVoucherDetailRepository(db)
	reportRepo := infraRepo.NewVoucherReportRepository(db)
	idempotencyRepo := infraRepo.NewIdempotencyRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	voucherService := service.NewVoucherService(service.VoucherServiceDeps{
		Transactor:   transactor,
		VoucherRepo:  voucherRepo,
		DetailRepo:   detailRepo,
		ServiceRepo:  serviceRepo,
		CustomerRepo: customerRepo,
		ClinicRepo:   clinicRepo,
		Allocator:    service.NewVoucherNumberAllocator(clinicRepo, voucherRepo, service.SystemClock, location),
		Reconciler:   service.NewBalanceReconciler(serviceRepo),
		Clock:        service.SystemClock,
		Options: service.LedgerOptions{
			TxTimeout:  cfg.Ledger.TxTimeout,
			MaxRetries: cfg.Ledger.MaxRetries,
		},
	})
	reportService := service.NewVoucherReportService(reportRepo, customerRepo, service.SystemClock, location)
	customerService := service.NewCustomerService(customerRepo, serviceRepo)

	printerCfg := printer.Config{
		Type:      cfg.Printer.Type,
		USBPath:   cfg.Printer.USBPath,
		Address:   cfg.Printer.Address,
		Timeout:   cfg.Printer.Timeout,
		CharWidth: cfg.Printer.CharWidth,
	}
	thermalPrinter, err := printer.New(printerCfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()
	printerService := service.NewPrinterService(thermalPrinter, voucherRepo, serviceRepo, printerCfg, location)

	rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfigFor(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	defer rateLimiter.Close()

	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Voucher:  handler.NewVoucherHandler(voucherService, location),
		Report:   handler.NewReportHandler(reportService, location),
		Customer: handler.NewCustomerHandler(customerService),
		Printer:  handler.NewPrinterHandler(printerService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	go sweepIdempotencyKeys(ctx, idempotencyRepo, idempotencySweepInterval, time.Now)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s, ledger time zone: %s", cfg.App.Env, location)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepIdempotencyKeys deletes expired idempotency keys until ctx is done
func sweepIdempotencyKeys(ctx context.Context, repo repository.IdempotencyRepository, every time.Duration, now func() time.Time) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now())
			if err != nil {
				log.Printf("Warning: failed to delete expired idempotency keys: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Deleted %d expired idempotency keys", n)
			}
		}
	}
}
