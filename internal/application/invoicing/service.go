package invoicing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	infra "github.com/invoicer/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// CodeNotConfigured is returned when an operation needs a collaborator the
// service was built without
const CodeNotConfigured = "NOT_CONFIGURED"

// ErrPersistenceDisabled is returned by the stored-invoice operations when no
// repository is configured
var ErrPersistenceDisabled = shared.NewDomainError(CodeNotConfigured, "invoice persistence is not configured")

// cacheKeyVersion changes whenever the rendered layout changes
const cacheKeyVersion = "invoice-pdf:v1"

// DocumentCache keeps rendered PDFs keyed by a hash of their input
type DocumentCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, pdf []byte) error
}

// RenderedInvoice is a finished PDF and the figures printed on it
type RenderedInvoice struct {
	Filename string
	Content  []byte
	Totals   invoice.Totals
	// Cached is true when Content came from the document cache
	Cached bool
	// ArchivePath is set when the PDF was archived
	ArchivePath string
}

// Option configures optional InvoiceService collaborators
type Option func(*InvoiceService)

// WithRepository enables Save, Get, RenderStored and List
func WithRepository(repo invoice.Repository) Option {
	return func(s *InvoiceService) {
		s.repo = repo
	}
}

// WithDocumentCache enables rendered PDF caching
func WithDocumentCache(cache DocumentCache) Option {
	return func(s *InvoiceService) {
		s.cache = cache
	}
}

// WithArchive stores every freshly rendered PDF
func WithArchive(archive infra.PDFStorage) Option {
	return func(s *InvoiceService) {
		s.archive = archive
	}
}

// WithClock overrides the time source used for stored invoice timestamps
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) {
		s.now = now
	}
}

// WithDefaultCurrency sets the currency of invoices that do not name one
func WithDefaultCurrency(cur valueobject.Currency) Option {
	return func(s *InvoiceService) {
		s.defaultCurrency = cur
	}
}

// InvoiceService computes, renders and stores invoices
type InvoiceService struct {
	renderer        infra.DocumentRenderer
	repo            invoice.Repository
	cache           DocumentCache
	archive         infra.PDFStorage
	logger          *zap.Logger
	now             func() time.Time
	defaultCurrency valueobject.Currency
	// renderVariant is the renderer's settings fingerprint, part of every cache key
	renderVariant   string
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(renderer infra.DocumentRenderer, log *zap.Logger, opts ...Option) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &InvoiceService{
		renderer: renderer,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if fp, ok := renderer.(infra.Fingerprinter); ok {
		s.renderVariant = fp.Fingerprint()
	}
	return s
}

// PersistenceEnabled reports whether stored-invoice operations are available
func (s *InvoiceService) PersistenceEnabled() bool {
	return s.repo != nil
}

// Totals validates the request and computes its totals
func (s *InvoiceService) Totals(ctx context.Context, req InvoiceRequest) (*TotalsResponse, error) {
	data, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	totals, err := invoice.ComputeTotals(data, invoice.BaseHourlyRate())
	if err != nil {
		return nil, err
	}

	logger.WithLogger(ctx, s.logger).Debug("invoice totals computed",
		zap.String("invoice_number", data.Number),
		zap.String("total", totals.TotalAmount.String()))

	resp := ToTotalsResponse(totals)
	return &resp, nil
}

// Render validates the request and renders it to PDF
func (s *InvoiceService) Render(ctx context.Context, req InvoiceRequest) (*RenderedInvoice, error) {
	data, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, data)
}

// RenderStored renders a persisted invoice
func (s *InvoiceService) RenderStored(ctx context.Context, number string) (*RenderedInvoice, error) {
	stored, err := s.find(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, stored.Data)
}

// Save validates and totals the request, then creates or replaces the
// invoice with the same number
func (s *InvoiceService) Save(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, bool, error) {
	if s.repo == nil {
		return nil, false, ErrPersistenceDisabled
	}
	data, err := s.parse(req)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	created := false
	stored, err := s.repo.FindByNumber(ctx, data.Number)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		stored, err = invoice.NewStoredInvoice(data, now)
		if err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to load invoice: %w", err)
	default:
		if err := stored.Replace(data, now); err != nil {
			return nil, false, err
		}
	}

	if err := s.repo.Save(ctx, stored); err != nil {
		return nil, false, fmt.Errorf("failed to save invoice: %w", err)
	}

	logger.WithLogger(ctx, s.logger).Info("invoice saved",
		zap.String("invoice_number", data.Number),
		zap.Bool("created", created),
		zap.Int("version", stored.Version),
		zap.String("total", stored.Totals.TotalAmount.String()))

	resp := ToInvoiceResponse(stored)
	return &resp, created, nil
}

// Get returns a stored invoice by number
func (s *InvoiceService) Get(ctx context.Context, number string) (*InvoiceResponse, error) {
	stored, err := s.find(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(stored)
	return &resp, nil
}

// List returns a page of stored invoices, newest first
func (s *InvoiceService) List(ctx context.Context, req ListInvoicesRequest) (*shared.Paginated[InvoiceSummary], error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	filter := req.Filter()
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	items := make([]InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, ToInvoiceSummary(inv))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *InvoiceService) parse(req InvoiceRequest) (invoice.InvoiceData, error) {
	data, err := req.ToDomain()
	if err != nil {
		return invoice.InvoiceData{}, err
	}
	if data.Currency == "" {
		data.Currency = s.defaultCurrency
	}
	if err := data.Validate(); err != nil {
		return invoice.InvoiceData{}, err
	}
	return data, nil
}

func (s *InvoiceService) find(ctx context.Context, number string) (*invoice.StoredInvoice, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	stored, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return stored, nil
}

func (s *InvoiceService) render(ctx context.Context, data invoice.InvoiceData) (*RenderedInvoice, error) {
	log := logger.WithLogger(ctx, s.logger).With(zap.String("invoice_number", data.Number))

	totals, err := invoice.ComputeTotals(data, invoice.BaseHourlyRate())
	if err != nil {
		return nil, err
	}
	result := &RenderedInvoice{
		Filename: invoice.SuggestedFilename(data),
		Totals:   totals,
	}

	key, err := CacheKey(data, s.renderVariant)
	if err != nil {
		return nil, fmt.Errorf("failed to derive cache key: %w", err)
	}
	if s.cache != nil {
		pdf, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("document cache lookup failed", zap.Error(err))
		} else if ok {
			log.Debug("invoice served from cache", zap.String("key", key))
			result.Content = pdf
			result.Cached = true
			return result, nil
		}
	}

	start := time.Now()
	pdf, err := s.renderer.Compose(data, totals)
	if err != nil {
		log.Error("invoice rendering failed", zap.Error(err))
		return nil, err
	}
	result.Content = pdf
	log.Info("invoice rendered",
		zap.Int("size", len(pdf)),
		zap.String("total", totals.TotalAmount.String()),
		zap.Duration("duration", time.Since(start)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, pdf); err != nil {
			log.Warn("document cache store failed", zap.Error(err))
		}
	}

	// the PDF is already complete, so archive failures only get logged
	if s.archive != nil {
		stored, err := s.archive.Store(ctx, &infra.StoreRequest{
			Filename: result.Filename,
			IssuedAt: data.Date,
			PDFData:  pdf,
		})
		if err != nil {
			log.Warn("invoice archive failed", zap.Error(err))
		} else {
			result.ArchivePath = stored.Path
		}
	}

	return result, nil
}

// CacheKey hashes everything that affects the rendered bytes: the invoice,
// the base rate and the renderer settings named by variant
func CacheKey(data invoice.InvoiceData, variant string) (string, error) {
	payload, err := json.Marshal(struct {
		Version  string
		Variant  string
		BaseRate string
		Data     invoice.InvoiceData
	}{cacheKeyVersion, variant, invoice.BaseHourlyRate().String(), data})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
