package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoucherNumberPrefix(t *testing.T) {
	at := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, "CLINICA-2501-", VoucherNumberPrefix("clinica", at))
	assert.Equal(t, "HN01-2501-", VoucherNumberPrefix(" hn01 ", at))
	assert.Equal(t, "HN01-2512-", VoucherNumberPrefix("HN01", time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)))
}

func TestFormatVoucherNumber(t *testing.T) {
	assert.Equal(t, "CLINICA-2501-0001", FormatVoucherNumber("CLINICA-2501-", 1))
	assert.Equal(t, "CLINICA-2501-0042", FormatVoucherNumber("CLINICA-2501-", 42))
	assert.Equal(t, "CLINICA-2501-9999", FormatVoucherNumber("CLINICA-2501-", MaxVoucherSequence))
}

func TestParseVoucherSequence(t *testing.T) {
	const prefix = "CLINICA-2501-"

	tests := []struct {
		name    string
		number  string
		want    int
		wantErr bool
	}{
		{name: "first", number: "CLINICA-2501-0001", want: 1},
		{name: "max", number: "CLINICA-2501-9999", want: 9999},
		{name: "other prefix", number: "CLINICB-2501-0001", wantErr: true},
		{name: "short segment", number: "CLINICA-2501-001", wantErr: true},
		{name: "long segment", number: "CLINICA-2501-00001", wantErr: true},
		{name: "letters", number: "CLINICA-2501-00A1", wantErr: true},
		{name: "signed", number: "CLINICA-2501-+001", wantErr: true},
		{name: "zero", number: "CLINICA-2501-0000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVoucherSequence(prefix, tt.number)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoucherNumberLength(t *testing.T) {
	prefix := VoucherNumberPrefix("clinica", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, len("CLINICA-2501-0001"), VoucherNumberLength(prefix))
	assert.NotEqual(t, len("CLINICA-2501-2501-0001"), VoucherNumberLength(prefix))
	assert.Equal(t, len([]rune("PHÒNGKHÁM-2501-0001")), VoucherNumberLength("PHÒNGKHÁM-2501-"))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
