package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxVoucherSequence is the largest sequence a four digit voucher segment can hold
const MaxVoucherSequence = 9999

const voucherSequenceWidth = 4

// VoucherNumberPrefix returns the "CODE-YYMM-" prefix shared by every voucher a
// clinic issues in the month containing at. Callers convert at to the ledger
// time zone first.
func VoucherNumberPrefix(clinicCode string, at time.Time) string {
	return fmt.Sprintf("%s-%s-", strings.ToUpper(strings.TrimSpace(clinicCode)), at.Format("0601"))
}

// FormatVoucherNumber appends the zero padded sequence to prefix
func FormatVoucherNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, voucherSequenceWidth, seq)
}

// VoucherNumberLength is the character length of every voucher number issued
// under prefix. A longer number sharing the prefix belongs to another clinic
// whose code extends this one: clinic "CLINICA-2501" issues
// "CLINICA-2501-2501-0001", which also starts with "CLINICA-2501-".
func VoucherNumberLength(prefix string) int {
	return utf8.RuneCountInString(prefix) + voucherSequenceWidth
}

// ParseVoucherSequence extracts the sequence from a voucher number carrying prefix.
// The trailing segment must be exactly four ASCII digits and greater than zero.
func ParseVoucherSequence(prefix, number string) (int, error) {
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("voucher number %q does not start with %q", number, prefix)
	}

	segment := strings.TrimPrefix(number, prefix)
	if len(segment) != voucherSequenceWidth {
		return 0, fmt.Errorf("voucher number %q has a malformed sequence segment", number)
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("voucher number %q has a non-numeric sequence segment", number)
		}
	}

	seq, err := strconv.Atoi(segment)
	if err != nil {
		return 0, fmt.Errorf("voucher number %q: %w", number, err)
	}
	if seq == 0 {
		return 0, fmt.Errorf("voucher number %q has a zero sequence", number)
	}

	return seq, nil
}
