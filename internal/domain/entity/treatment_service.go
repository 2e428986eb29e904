package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TreatmentService is a priced treatment purchased by a customer. Voucher line
// items pay it down; AmountPaid and Debt are maintained by the ledger only.
type TreatmentService struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	ClinicID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"clinic_id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	FinalPrice decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"final_price"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"amount_paid"`
	Debt       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"debt"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Relationships
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new treatment service
func (s *TreatmentService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the TreatmentService model
func (TreatmentService) TableName() string {
	return "treatment_services"
}

// DebtFor returns max(0, finalPrice - amountPaid)
func DebtFor(finalPrice, amountPaid decimal.Decimal) decimal.Decimal {
	debt := finalPrice.Sub(amountPaid)
	if debt.IsNegative() {
		return decimal.Zero
	}
	return debt
}
