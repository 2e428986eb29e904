package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher represents a payment voucher recorded at a clinic cashier desk.
// VoucherNumber is immutable once issued.
type Voucher struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	VoucherNumber string          `gorm:"size:50;uniqueIndex:idx_vouchers_voucher_number;not null" json:"voucher_number"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	CashierID     *uuid.UUID      `gorm:"type:uuid;index" json:"cashier_id,omitempty"`
	ClinicID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PaymentDate   time.Time       `gorm:"not null;index" json:"payment_date"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_amount"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedByID   *uuid.UUID      `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	UpdatedByID   *uuid.UUID      `gorm:"type:uuid;column:updated_by" json:"updated_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	Customer *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Clinic   *Clinic         `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Cashier  *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	Details  []VoucherDetail `gorm:"foreignKey:VoucherID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// BeforeCreate generates a UUID before creating a new voucher
func (v *Voucher) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Voucher model
func (Voucher) TableName() string {
	return "vouchers"
}

// SumDetails returns the sum of the line item amounts
func (v *Voucher) SumDetails() decimal.Decimal {
	total := decimal.Zero
	for _, d := range v.Details {
		total = total.Add(d.Amount)
	}
	return total
}

// VoucherDetail is one line item of a voucher: an amount paid toward a
// treatment service with a single payment method. ServiceID is a weak
// reference; the service row is locked and updated through the reconciler.
type VoucherDetail struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	VoucherID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"voucher_id"`
	LineNo        int                `gorm:"not null;default:0" json:"line_no"`
	ServiceID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"service_id"`
	Amount        decimal.Decimal    `gorm:"type:numeric(15,2);not null" json:"amount"`
	PaymentMethod enum.PaymentMethod `gorm:"size:30;not null;index" json:"payment_method"`
	CreatedByID   *uuid.UUID         `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new voucher detail
func (d *VoucherDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the VoucherDetail model
func (VoucherDetail) TableName() string {
	return "voucher_details"
}
