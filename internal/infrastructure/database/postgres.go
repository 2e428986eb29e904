package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/config"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, appEnv string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevelFor(appEnv)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

func logLevelFor(appEnv string) logger.LogLevel {
	if strings.EqualFold(appEnv, "development") {
		return logger.Info
	}
	return logger.Warn
}

// Models lists every table the ledger owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		// Staff
		&entity.Permission{},
		&entity.Role{},
		&entity.Clinic{},
		&entity.User{},

		// Patients and their treatment balances
		&entity.Customer{},
		&entity.TreatmentService{},

		// Ledger
		&entity.Voucher{},
		&entity.VoucherDetail{},

		// System
		&entity.IdempotencyKey{},
	}
}

// ledgerConstraints are CHECK constraints gorm tags cannot express
var ledgerConstraints = []struct {
	table, name, check string
}{
	{"voucher_details", "chk_voucher_details_amount_positive", "amount > 0"},
	{"treatment_services", "chk_treatment_services_debt_non_negative", "debt >= 0"},
	{"vouchers", "chk_vouchers_total_non_negative", "total_amount >= 0"},
}

// AutoMigrate runs GORM auto-migration for all entities and adds the ledger
// constraints. The unique index on vouchers.voucher_number is what turns a
// lost numbering race into a retryable conflict, so its absence is fatal.
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, c := range ledgerConstraints {
		var exists bool
		if err := db.Raw(
			"SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)", c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("failed to inspect constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", c.table, c.name, c.check)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
		}
	}

	if !db.Migrator().HasIndex(&entity.Voucher{}, "idx_vouchers_voucher_number") {
		return fmt.Errorf("unique index idx_vouchers_voucher_number is missing after migration")
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Permission names
const (
	PermManageVouchers = "manage-vouchers"
	PermViewVouchers   = "view-vouchers"
	PermViewReports    = "view-reports"
	PermViewCustomers  = "view-customers"
	PermManagePrinter  = "manage-printer"
)

// rolePermissions maps each seeded role to its permissions
var rolePermissions = map[string][]string{
	"super-admin": {PermManageVouchers, PermViewVouchers, PermViewReports, PermViewCustomers, PermManagePrinter},
	"accountant":  {PermViewVouchers, PermViewReports, PermViewCustomers},
	"cashier":     {PermManageVouchers, PermViewVouchers, PermViewCustomers, PermManagePrinter},
}

// SeedDefaultData seeds permissions, roles, the bootstrap admin and, when
// enabled, a demo clinic
func SeedDefaultData(db *gorm.DB, cfg config.SeedConfig) error {
	log.Println("Seeding default data...")

	permByName := make(map[string]entity.Permission)
	for _, name := range []string{PermManageVouchers, PermViewVouchers, PermViewReports, PermViewCustomers, PermManagePrinter} {
		perm := entity.Permission{Name: name, GuardName: "web"}
		if err := db.Where(entity.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", name, err)
		}
		permByName[name] = perm
	}

	for _, roleName := range []string{"super-admin", "accountant", "cashier"} {
		var perms []entity.Permission
		for _, name := range rolePermissions[roleName] {
			perms = append(perms, permByName[name])
		}

		role := entity.Role{Name: roleName, GuardName: "web"}
		if err := db.Where(entity.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", roleName, err)
		}
		if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to attach permissions to %s: %w", roleName, err)
		}
	}

	if err := seedAdmin(db, cfg); err != nil {
		return err
	}

	if cfg.DemoData {
		if err := seedDemoClinic(db); err != nil {
			return err
		}
	}

	log.Println("Default data seeding completed")
	return nil
}

func seedAdmin(db *gorm.DB, cfg config.SeedConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var count int64
	if err := db.Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Super admin user already exists: %s", email)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	var role entity.Role
	if err := db.Where("name = ?", "super-admin").First(&role).Error; err != nil {
		return fmt.Errorf("super-admin role missing: %w", err)
	}

	firstName, lastName := splitName(cfg.AdminName)
	admin := entity.User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Username:  strings.SplitN(email, "@", 2)[0],
		Email:     email,
		Password:  string(hashedPassword),
		Roles:     []entity.Role{role},
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create super admin user: %w", err)
	}
	log.Printf("Super admin user created: %s", email)
	return nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Super", "Admin"
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// seedDemoClinic creates one clinic with a customer and an unpaid treatment
// service so a fresh install can record a voucher straight away
func seedDemoClinic(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		clinic := entity.Clinic{Name: "Demo Clinic", ClinicCode: "DEMO"}
		if err := tx.Where(entity.Clinic{ClinicCode: "DEMO"}).FirstOrCreate(&clinic).Error; err != nil {
			return fmt.Errorf("failed to seed demo clinic: %w", err)
		}

		var existing int64
		if err := tx.Model(&entity.Customer{}).Where("clinic_id = ?", clinic.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		customer := entity.Customer{ClinicID: &clinic.ID, Name: "Demo Patient"}
		if err := tx.Create(&customer).Error; err != nil {
			return fmt.Errorf("failed to seed demo customer: %w", err)
		}

		price := decimal.NewFromInt(1_000_000)
		service := entity.TreatmentService{
			CustomerID: customer.ID,
			ClinicID:   clinic.ID,
			Name:       "Dental implant",
			FinalPrice: price,
			AmountPaid: decimal.Zero,
			Debt:       price,
		}
		if err := tx.Create(&service).Error; err != nil {
			return fmt.Errorf("failed to seed demo treatment service: %w", err)
		}

		log.Printf("Demo clinic seeded: %s (customer %s, service %s)", clinic.ClinicCode, customer.ID, service.ID)
		return nil
	})
}
