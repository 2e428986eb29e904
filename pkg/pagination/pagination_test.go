package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParamsValidate(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = &PaginationParams{Page: 3, PerPage: 20}
	p.Validate()
	assert.Equal(t, 40, p.Offset())
}

func TestNewPagination(t *testing.T) {
	pg := NewPagination(2, 15, 31)

	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasNext)
	assert.True(t, pg.HasPrev)
}

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC)
	params := &CursorParams{Cursor: EncodeCursor("abc", createdAt)}

	cursor, err := params.DecodeCursor()
	require.NoError(t, err)
	assert.Equal(t, "abc", cursor.ID)
	assert.True(t, createdAt.Equal(cursor.CreatedAt))

	_, err = (&CursorParams{Cursor: "%%%"}).DecodeCursor()
	assert.Error(t, err)
}

func TestNewCursorPaginationTrimsExtraItem(t *testing.T) {
	items := []string{"a", "b", "c"}
	now := time.Now()

	pg, trimmed := NewCursorPagination(items, 2, func(s string) string { return s }, func(string) time.Time { return now })

	assert.Equal(t, []string{"a", "b"}, trimmed)
	assert.True(t, pg.HasNext)
	require.NotNil(t, pg.NextCursor)
}

func TestUnifiedParamsSelectsStrategy(t *testing.T) {
	assert.False(t, (&UnifiedPaginationParams{Page: 2}).IsCursorBased())
	assert.True(t, (&UnifiedPaginationParams{Limit: 10}).IsCursorBased())

	cp := (&UnifiedPaginationParams{PerPage: 30, Cursor: "x"}).ToCursorParams()
	assert.Equal(t, 30, cp.Limit)
	assert.Equal(t, CursorDirectionNext, cp.Direction)
}

func TestResolveSort(t *testing.T) {
	allowed := map[string]string{
		"payment_date": "vouchers.payment_date",
		"total_amount": "vouchers.total_amount",
	}

	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		column    string
		direction string
	}{
		{"default", "", "", "vouchers.payment_date", "DESC"},
		{"whitelisted asc", "total_amount", "asc", "vouchers.total_amount", "ASC"},
		{"case insensitive", "TOTAL_AMOUNT", "ASC", "vouchers.total_amount", "ASC"},
		{"injection falls back", "payment_date; DROP TABLE vouchers", "desc", "vouchers.payment_date", "DESC"},
		{"bad direction", "payment_date", "sideways", "vouchers.payment_date", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			column, direction := ResolveSort(tt.sortBy, tt.sortOrder, allowed, "payment_date")
			assert.Equal(t, tt.column, column)
			assert.Equal(t, tt.direction, direction)
		})
	}
}
