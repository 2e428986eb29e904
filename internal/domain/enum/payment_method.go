package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentMethod represents how a voucher line item was paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCardRegular  PaymentMethod = "card-regular"
	PaymentMethodCardPremium  PaymentMethod = "card-premium"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
)

// PaymentMethods lists every accepted method in display order
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCardRegular,
	PaymentMethodCardPremium,
	PaymentMethodBankTransfer,
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Label returns a human readable name used on printed receipts
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCash:
		return "Cash"
	case PaymentMethodCardRegular:
		return "Card"
	case PaymentMethodCardPremium:
		return "Card (premium)"
	case PaymentMethodBankTransfer:
		return "Bank transfer"
	}
	return string(m)
}

// IsValid reports whether m is one of the accepted payment methods
func (m PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts a raw string into a PaymentMethod
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(m))
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	// Unknown values are kept so validation can report them per field.
	*m = PaymentMethod(str)
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("unknown payment method %q", string(m))
	}
	return string(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*m = PaymentMethod(v)
	case []byte:
		*m = PaymentMethod(v)
	case nil:
		*m = ""
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethod", value)
	}
	return nil
}
