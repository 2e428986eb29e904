package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clinic represents a clinic branch. ClinicCode prefixes every voucher number
// the clinic issues.
type Clinic struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	ClinicCode string    `gorm:"size:20;unique;not null" json:"clinic_code"`
	Address    *string   `gorm:"type:text" json:"address,omitempty"`
	Phone      *string   `gorm:"size:50" json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new clinic
func (c *Clinic) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Clinic model
func (Clinic) TableName() string {
	return "clinics"
}
