package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/printer"
	"github.com/shopspring/decimal"
)

const receiptDateLayout = "2006-01-02 15:04"

// PrinterService composes voucher receipts and sends them to the desk printer.
type PrinterService struct {
	printer     printer.Printer
	voucherRepo repository.VoucherRepository
	serviceRepo repository.TreatmentServiceRepository
	printerType string
	charWidth   int
	location    *time.Location
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	voucherRepo repository.VoucherRepository,
	serviceRepo repository.TreatmentServiceRepository,
	cfg printer.Config,
	location *time.Location,
) *PrinterService {
	if location == nil {
		location = time.UTC
	}
	width := cfg.CharWidth
	if width <= 0 {
		width = printer.Width58mm
	}
	return &PrinterService{
		printer:     p,
		voucherRepo: voucherRepo,
		serviceRepo: serviceRepo,
		printerType: cfg.Type,
		charWidth:   width,
		location:    location,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != printer.TypeNone && s.printerType != "",
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printerType,
		Width:      s.charWidth,
	}
}

// TestPrint sends a sample receipt. The receipt is returned even when printing
// fails so the caller can show it.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:        entity.ReceiptHeader{ClinicName: "PRINTER TEST"},
		VoucherNumber: "TEST-0000-0000",
		Date:          time.Now().In(s.location).Format(receiptDateLayout),
		Cashier:       "System",
		Lines: []entity.ReceiptLine{
			{Service: "Sample service", Method: enum.PaymentMethodCash.Label(), Amount: formatAmount(decimal.NewFromInt(10))},
		},
		MethodTotals: []entity.ReceiptMethodTotal{
			{Method: enum.PaymentMethodCash.Label(), Amount: formatAmount(decimal.NewFromInt(10))},
		},
		Total: formatAmount(decimal.NewFromInt(10)),
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.charWidth)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// BuildReceipt composes the printable view of a voucher.
func (s *PrinterService) BuildReceipt(ctx context.Context, voucherID uuid.UUID) (*entity.Receipt, error) {
	voucher, err := s.voucherRepo.GetWithDetails(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, apperror.ErrVoucherNotFound
	}

	ids := make([]uuid.UUID, 0, len(voucher.Details))
	for _, d := range voucher.Details {
		ids = append(ids, d.ServiceID)
	}
	services, err := s.serviceRepo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(services))
	for _, svc := range services {
		names[svc.ID] = svc.Name
	}

	return composeReceipt(voucher, names, s.location), nil
}

// PrintVoucherReceipt builds a voucher's receipt and prints it. On printer
// failure the receipt is still returned together with the error.
func (s *PrinterService) PrintVoucherReceipt(ctx context.Context, voucherID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.BuildReceipt(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.charWidth)); err != nil {
		log.Printf("Printer error (voucher %s): %v", receipt.VoucherNumber, err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

func composeReceipt(v *entity.Voucher, serviceNames map[uuid.UUID]string, location *time.Location) *entity.Receipt {
	receipt := &entity.Receipt{
		VoucherNumber: v.VoucherNumber,
		Date:          v.PaymentDate.In(location).Format(receiptDateLayout),
		Total:         formatAmount(v.TotalAmount),
		Lines:         make([]entity.ReceiptLine, 0, len(v.Details)),
	}
	if v.Clinic != nil {
		receipt.Header = entity.ReceiptHeader{ClinicName: v.Clinic.Name}
		if v.Clinic.Address != nil {
			receipt.Header.Address = *v.Clinic.Address
		}
		if v.Clinic.Phone != nil {
			receipt.Header.Phone = *v.Clinic.Phone
		}
	}
	if v.Cashier != nil {
		receipt.Cashier = v.Cashier.FullName()
	}
	if v.Customer != nil {
		receipt.Customer = v.Customer.Name
	}
	if v.Notes != nil {
		receipt.Notes = *v.Notes
	}

	byMethod := make(map[enum.PaymentMethod]decimal.Decimal)
	for _, d := range v.Details {
		name := serviceNames[d.ServiceID]
		if name == "" {
			name = "Service"
		}
		receipt.Lines = append(receipt.Lines, entity.ReceiptLine{
			Service: name,
			Method:  d.PaymentMethod.Label(),
			Amount:  formatAmount(d.Amount),
		})
		byMethod[d.PaymentMethod] = byMethod[d.PaymentMethod].Add(d.Amount)
	}
	for _, m := range enum.PaymentMethods {
		if total, ok := byMethod[m]; ok {
			receipt.MethodTotals = append(receipt.MethodTotals, entity.ReceiptMethodTotal{
				Method: m.Label(),
				Amount: formatAmount(total),
			})
		}
	}
	return receipt
}

// FormatReceipt converts a Receipt into ESC/POS bytes for a roll charWidth
// characters wide.
func FormatReceipt(r *entity.Receipt, charWidth int) []byte {
	doc := printer.NewDocument(charWidth)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.ClinicName).
		SetFontSize(printer.FontNormal).
		SetBold(false)
	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	doc.SetBold(true).Text("PAYMENT VOUCHER").SetBold(false)

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Voucher:", r.VoucherNumber).
		KeyValue("Date:", r.Date)
	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}

	doc.Separator('-')
	for _, line := range r.Lines {
		doc.AmountLine(line.Service, line.Amount)
		doc.Text("  " + line.Method)
	}

	doc.Separator('-')
	for _, mt := range r.MethodTotals {
		doc.KeyValue(mt.Method+":", mt.Amount)
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", r.Total).
		SetBold(false)

	if r.Notes != "" {
		doc.Separator('-').Text(r.Notes)
	}

	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you!").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// formatAmount renders a money value with two decimals and comma grouping,
// e.g. 1,100,000.00
func formatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}
