package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByNumber finds an invoice by its number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*invoice.StoredInvoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save saves an invoice (insert or update)
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.StoredInvoice) error {
	model, err := models.InvoiceModelFromDomain(inv)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// List returns one page of invoices ordered by issue date, newest first
func (r *GormInvoiceRepository) List(ctx context.Context, filter shared.Filter) ([]invoice.StoredInvoice, int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Order("issue_date DESC, number DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]invoice.StoredInvoice, 0, len(invoiceModels))
	for i := range invoiceModels {
		inv, err := invoiceModels[i].ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load invoice list: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, nil
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
