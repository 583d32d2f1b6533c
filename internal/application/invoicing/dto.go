package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/locale"
)

// =============================================================================
// Request DTOs
// =============================================================================

// InvoiceRequest is the wire form of an invoice. Dates are YYYY-MM-DD.
type InvoiceRequest struct {
	Number               string                  `json:"number" binding:"required,max=64"`
	Date                 string                  `json:"date" binding:"required"`
	ProjectName          string                  `json:"project_name" binding:"max=200"`
	Payer                PayerDTO                `json:"payer"`
	Client               ClientDTO               `json:"client"`
	Bank                 BankDetailsDTO          `json:"bank"`
	Currency             string                  `json:"currency" binding:"omitempty,len=3"`
	Notes                string                  `json:"notes"`
	Items                []LineItemDTO           `json:"items"`
	OvertimeEntries      []OvertimeEntryDTO      `json:"overtime_entries"`
	CustomExpenseEntries []CustomExpenseEntryDTO `json:"custom_expense_entries"`
}

// PayerDTO is the freelancer issuing the invoice
type PayerDTO struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// ClientDTO is the billed party
type ClientDTO struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	AttentionTo string `json:"attention_to,omitempty"`
}

// BankDetailsDTO carries the payment details
type BankDetailsDTO struct {
	IBAN          string `json:"iban" binding:"required"`
	SwiftBIC      string `json:"swift_bic" binding:"required"`
	AccountNumber string `json:"account_number,omitempty"`
	SortCode      string `json:"sort_code,omitempty"`
	BankAddress   string `json:"bank_address,omitempty"`
}

// LineItemDTO is a flat billable entry. Cost overrides quantity × unit price.
type LineItemDTO struct {
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	Cost        *float64 `json:"cost,omitempty"`
}

// OvertimeEntryDTO is a block of overtime hours
type OvertimeEntryDTO struct {
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	RateType string  `json:"rate_type"`
}

// CustomExpenseEntryDTO is a reimbursable expense
type CustomExpenseEntryDTO struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Cost        float64 `json:"cost"`
}

// ListInvoicesRequest represents a request to list stored invoices
type ListInvoicesRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Filter converts the query into a normalized domain filter
func (r ListInvoicesRequest) Filter() shared.Filter {
	return shared.Filter{Page: r.Page, PageSize: r.PageSize}.Normalize()
}

// ToDomain parses dates, currency and rate types. Every problem found is
// reported in a single validation error.
func (r InvoiceRequest) ToDomain() (invoice.InvoiceData, error) {
	var problems []shared.FieldError
	parseDate := func(field, value string) time.Time {
		t, err := locale.ParseCalendarDate(value)
		if err != nil {
			problems = append(problems, shared.FieldError{Field: field, Message: err.Error()})
		}
		return t
	}

	data := invoice.InvoiceData{
		Number:      strings.TrimSpace(r.Number),
		ProjectName: strings.TrimSpace(r.ProjectName),
		Payer: invoice.Payer{
			Name:    r.Payer.Name,
			Email:   r.Payer.Email,
			Address: r.Payer.Address,
		},
		Client: invoice.Client{
			Name:        r.Client.Name,
			Address:     r.Client.Address,
			AttentionTo: r.Client.AttentionTo,
		},
		Bank: invoice.BankDetails{
			IBAN:          r.Bank.IBAN,
			SwiftBIC:      r.Bank.SwiftBIC,
			AccountNumber: r.Bank.AccountNumber,
			SortCode:      r.Bank.SortCode,
			BankAddress:   r.Bank.BankAddress,
		},
		Notes: r.Notes,
	}

	if strings.TrimSpace(r.Date) != "" {
		data.Date = parseDate("date", r.Date)
	}
	if strings.TrimSpace(r.Payer.DateOfBirth) != "" {
		dob := parseDate("payer.date_of_birth", r.Payer.DateOfBirth)
		data.Payer.DateOfBirth = &dob
	}
	if strings.TrimSpace(r.Currency) != "" {
		cur, err := valueobject.ParseCurrency(r.Currency)
		if err != nil {
			problems = append(problems, shared.FieldError{Field: "currency", Message: err.Error()})
		}
		data.Currency = cur
	}

	data.Items = make([]invoice.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		data.Items = append(data.Items, invoice.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Cost:        it.Cost,
		})
	}

	data.OvertimeEntries = make([]invoice.OvertimeEntry, 0, len(r.OvertimeEntries))
	for i, oe := range r.OvertimeEntries {
		field := fmt.Sprintf("overtime_entries[%d]", i)
		rate, err := invoice.ParseRateType(oe.RateType)
		if err != nil {
			problems = append(problems, shared.FieldError{Field: field + ".rate_type", Message: err.Error()})
		}
		data.OvertimeEntries = append(data.OvertimeEntries, invoice.OvertimeEntry{
			Date:     parseDate(field+".date", oe.Date),
			Hours:    oe.Hours,
			RateType: rate,
		})
	}

	data.CustomExpenseEntries = make([]invoice.CustomExpenseEntry, 0, len(r.CustomExpenseEntries))
	for _, ce := range r.CustomExpenseEntries {
		data.CustomExpenseEntries = append(data.CustomExpenseEntries, invoice.CustomExpenseEntry(ce))
	}

	if err := shared.NewValidationErrors(problems); err != nil {
		return invoice.InvoiceData{}, err
	}
	return data, nil
}

// FromDomain converts invoice data back to its wire form
func FromDomain(d invoice.InvoiceData) InvoiceRequest {
	r := InvoiceRequest{
		Number:      d.Number,
		Date:        locale.FormatCalendarDate(d.Date),
		ProjectName: d.ProjectName,
		Payer: PayerDTO{
			Name:    d.Payer.Name,
			Email:   d.Payer.Email,
			Address: d.Payer.Address,
		},
		Client: ClientDTO{
			Name:        d.Client.Name,
			Address:     d.Client.Address,
			AttentionTo: d.Client.AttentionTo,
		},
		Bank: BankDetailsDTO{
			IBAN:          d.Bank.IBAN,
			SwiftBIC:      d.Bank.SwiftBIC,
			AccountNumber: d.Bank.AccountNumber,
			SortCode:      d.Bank.SortCode,
			BankAddress:   d.Bank.BankAddress,
		},
		Currency:             string(d.Currency),
		Notes:                d.Notes,
		Items:                make([]LineItemDTO, 0, len(d.Items)),
		OvertimeEntries:      make([]OvertimeEntryDTO, 0, len(d.OvertimeEntries)),
		CustomExpenseEntries: make([]CustomExpenseEntryDTO, 0, len(d.CustomExpenseEntries)),
	}
	if d.Payer.DateOfBirth != nil {
		r.Payer.DateOfBirth = locale.FormatCalendarDate(*d.Payer.DateOfBirth)
	}
	for _, it := range d.Items {
		r.Items = append(r.Items, LineItemDTO{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Cost:        it.Cost,
		})
	}
	for _, oe := range d.OvertimeEntries {
		r.OvertimeEntries = append(r.OvertimeEntries, OvertimeEntryDTO{
			Date:     locale.FormatCalendarDate(oe.Date),
			Hours:    oe.Hours,
			RateType: oe.RateType.String(),
		})
	}
	for _, ce := range d.CustomExpenseEntries {
		r.CustomExpenseEntries = append(r.CustomExpenseEntries, CustomExpenseEntryDTO(ce))
	}
	return r
}

// =============================================================================
// Response DTOs
// =============================================================================

// TotalsResponse represents computed invoice totals. Amounts are decimal
// strings at the currency's scale.
type TotalsResponse struct {
	Currency            string                   `json:"currency"`
	Items               []NormalizedItemResponse `json:"items"`
	ItemsTotal          string                   `json:"items_total"`
	OvertimeTotal       string                   `json:"overtime_total"`
	CustomExpensesTotal string                   `json:"custom_expenses_total"`
	TotalAmount         string                   `json:"total_amount"`
	FormattedTotal      string                   `json:"formatted_total"`
}

// NormalizedItemResponse is a line item with its effective cost
type NormalizedItemResponse struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Cost        string `json:"cost"`
}

// ToTotalsResponse converts domain totals to a response DTO
func ToTotalsResponse(t invoice.Totals) TotalsResponse {
	scale := t.Currency.Scale()
	items := make([]NormalizedItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, NormalizedItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(scale),
			Cost:        it.Cost.StringFixed(scale),
		})
	}
	return TotalsResponse{
		Currency:            string(t.Currency),
		Items:               items,
		ItemsTotal:          t.ItemsTotal.StringFixed(),
		OvertimeTotal:       t.OvertimeTotal.StringFixed(),
		CustomExpensesTotal: t.CustomExpensesTotal.StringFixed(),
		TotalAmount:         t.TotalAmount.StringFixed(),
		FormattedTotal:      locale.FormatMoney(t.TotalAmount),
	}
}

// InvoiceResponse represents a stored invoice
type InvoiceResponse struct {
	ID        string         `json:"id"`
	Version   int            `json:"version"`
	Invoice   InvoiceRequest `json:"invoice"`
	Totals    TotalsResponse `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ToInvoiceResponse converts a stored invoice to a response DTO
func ToInvoiceResponse(s *invoice.StoredInvoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        s.ID.String(),
		Version:   s.Version,
		Invoice:   FromDomain(s.Data),
		Totals:    ToTotalsResponse(s.Totals),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// InvoiceSummary is one row of the invoice list
type InvoiceSummary struct {
	Number      string    `json:"number"`
	Date        string    `json:"date"`
	ProjectName string    `json:"project_name,omitempty"`
	PayerName   string    `json:"payer_name"`
	ClientName  string    `json:"client_name"`
	Currency    string    `json:"currency"`
	TotalAmount string    `json:"total_amount"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToInvoiceSummary converts a stored invoice to a list row
func ToInvoiceSummary(s invoice.StoredInvoice) InvoiceSummary {
	return InvoiceSummary{
		Number:      s.Data.Number,
		Date:        locale.FormatCalendarDate(s.Data.Date),
		ProjectName: s.Data.ProjectName,
		PayerName:   s.Data.Payer.Name,
		ClientName:  s.Data.Client.Name,
		Currency:    string(s.Totals.Currency),
		TotalAmount: s.Totals.TotalAmount.StringFixed(),
		UpdatedAt:   s.UpdatedAt,
	}
}
