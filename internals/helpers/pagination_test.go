package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPaginationFromPage(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		page      int
		perPage   int
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"halaman pertama", 100, 1, 25, 4, true, false},
		{"halaman tengah", 100, 2, 25, 4, true, true},
		{"halaman terakhir", 100, 4, 25, 4, false, true},
		{"data kosong", 0, 1, 25, 1, false, false},
		{"sisa tidak genap", 101, 1, 25, 5, true, false},
		{"per page nol pakai default", 40, 1, 0, 2, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPaginationFromPage(tt.total, tt.page, tt.perPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
		})
	}
}

func TestSafeOrderClause(t *testing.T) {
	allowed := map[string]string{
		"created_at": "invoice_created_at",
		"due_date":   "invoice_due_date",
	}

	p := Params{SortBy: "due_date", SortOrder: "asc"}
	clause, err := p.SafeOrderClause(allowed, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "invoice_due_date ASC", clause)

	// Kolom di luar whitelist jatuh ke default — tidak pernah bocor ke SQL.
	p = Params{SortBy: "invoice_amount_idr; DROP TABLE invoices", SortOrder: "desc"}
	clause, err = p.SafeOrderClause(allowed, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "invoice_created_at DESC", clause)

	// Default key yang tidak ada di whitelist = salah pakai.
	_, err = p.SafeOrderClause(allowed, "tidak_ada")
	assert.Error(t, err)
}

func TestSafeOrderClause_ArahDefaultDesc(t *testing.T) {
	allowed := map[string]string{"created_at": "payment_created_at"}
	p := Params{SortBy: "created_at", SortOrder: "sideways"}
	clause, err := p.SafeOrderClause(allowed, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "payment_created_at DESC", clause)
}
