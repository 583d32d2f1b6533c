package invoice

import (
	"context"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
)

// StoredInvoice is an invoice as kept by the persistence layer: the raw
// entries plus the subtotals computed when it was last saved.
type StoredInvoice struct {
	shared.BaseEntity
	Data   InvoiceData
	Totals Totals
}

// NewStoredInvoice totals data and wraps it in a new record
func NewStoredInvoice(data InvoiceData, now time.Time) (*StoredInvoice, error) {
	totals, err := ComputeTotals(data, BaseHourlyRate())
	if err != nil {
		return nil, err
	}
	return &StoredInvoice{
		BaseEntity: shared.NewBaseEntity(now),
		Data:       data,
		Totals:     totals,
	}, nil
}

// Replace swaps in new data and recomputes the stored subtotals
func (s *StoredInvoice) Replace(data InvoiceData, now time.Time) error {
	totals, err := ComputeTotals(data, BaseHourlyRate())
	if err != nil {
		return err
	}
	s.Data = data
	s.Totals = totals
	s.Touch(now)
	return nil
}

// Repository defines the interface for invoice persistence
type Repository interface {
	// FindByNumber returns shared.ErrNotFound when no invoice has that number
	FindByNumber(ctx context.Context, number string) (*StoredInvoice, error)

	// Save creates or updates an invoice keyed by its number
	Save(ctx context.Context, inv *StoredInvoice) error

	// List returns invoices newest first
	List(ctx context.Context, filter shared.Filter) ([]StoredInvoice, int64, error)
}
