package entity

// ReceiptHeader holds the clinic header printed at the top of a receipt.
type ReceiptHeader struct {
	ClinicName string `json:"clinic_name"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// ReceiptLine is one paid service on a voucher receipt.
type ReceiptLine struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Amount  string `json:"amount"`
}

// ReceiptMethodTotal is the subtotal of one payment method.
type ReceiptMethodTotal struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

// Receipt is a printable view of a voucher, composed at print time.
// Amounts are preformatted decimal strings.
type Receipt struct {
	Header        ReceiptHeader        `json:"header"`
	VoucherNumber string               `json:"voucher_number"`
	Date          string               `json:"date"`
	Cashier       string               `json:"cashier,omitempty"`
	Customer      string               `json:"customer,omitempty"`
	Lines         []ReceiptLine        `json:"lines"`
	MethodTotals  []ReceiptMethodTotal `json:"method_totals"`
	Total         string               `json:"total"`
	Notes         string               `json:"notes,omitempty"`
}
