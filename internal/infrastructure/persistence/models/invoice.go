package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the GORM model for the invoices table. The entries are
// kept as a JSON document; the subtotals are copied out so they can be
// queried without decoding it.
type InvoiceModel struct {
	BaseModel
	Number              string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	IssueDate           time.Time       `gorm:"column:issue_date;not null;index"`
	ProjectName         string          `gorm:"type:varchar(200)"`
	PayerName           string          `gorm:"type:varchar(200);not null"`
	ClientName          string          `gorm:"type:varchar(200);not null;index"`
	Currency            string          `gorm:"type:varchar(3);not null"`
	ItemsTotal          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OvertimeTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CustomExpensesTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Document            string          `gorm:"type:text;not null"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

type invoiceDocument struct {
	Number      string                  `json:"number"`
	Date        time.Time               `json:"date"`
	ProjectName string                  `json:"project_name,omitempty"`
	Payer       payerDocument           `json:"payer"`
	Client      clientDocument          `json:"client"`
	Bank        bankDocument            `json:"bank"`
	Currency    string                  `json:"currency,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	Items       []lineItemDocument      `json:"items"`
	Overtime    []overtimeDocument      `json:"overtime_entries"`
	Expenses    []customExpenseDocument `json:"custom_expense_entries"`
}

type payerDocument struct {
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type clientDocument struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	AttentionTo string `json:"attention_to,omitempty"`
}

type bankDocument struct {
	IBAN          string `json:"iban"`
	SwiftBIC      string `json:"swift_bic"`
	AccountNumber string `json:"account_number,omitempty"`
	SortCode      string `json:"sort_code,omitempty"`
	BankAddress   string `json:"bank_address,omitempty"`
}

type lineItemDocument struct {
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	Cost        *float64 `json:"cost,omitempty"`
}

type overtimeDocument struct {
	Date     time.Time `json:"date"`
	Hours    float64   `json:"hours"`
	RateType string    `json:"rate_type"`
}

type customExpenseDocument struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Cost        float64 `json:"cost"`
}

// InvoiceModelFromDomain creates an InvoiceModel from a stored invoice
func InvoiceModelFromDomain(s *invoice.StoredInvoice) (*InvoiceModel, error) {
	doc, err := json.Marshal(documentFromDomain(s.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice document: %w", err)
	}
	m := &InvoiceModel{
		Number:              s.Data.Number,
		IssueDate:           s.Data.Date,
		ProjectName:         s.Data.ProjectName,
		PayerName:           s.Data.Payer.Name,
		ClientName:          s.Data.Client.Name,
		Currency:            string(s.Totals.Currency),
		ItemsTotal:          s.Totals.ItemsTotal.Amount(),
		OvertimeTotal:       s.Totals.OvertimeTotal.Amount(),
		CustomExpensesTotal: s.Totals.CustomExpensesTotal.Amount(),
		TotalAmount:         s.Totals.TotalAmount.Amount(),
		Document:            string(doc),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m, nil
}

// ToDomain decodes the document and recomputes the totals from it
func (m *InvoiceModel) ToDomain() (*invoice.StoredInvoice, error) {
	var doc invoiceDocument
	if err := json.Unmarshal([]byte(m.Document), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode invoice %s: %w", m.Number, err)
	}
	data := doc.toDomain()
	totals, err := invoice.ComputeTotals(data, invoice.BaseHourlyRate())
	if err != nil {
		return nil, fmt.Errorf("stored invoice %s is invalid: %w", m.Number, err)
	}
	return &invoice.StoredInvoice{
		BaseEntity: m.BaseModel.ToDomain(),
		Data:       data,
		Totals:     totals,
	}, nil
}

func documentFromDomain(d invoice.InvoiceData) invoiceDocument {
	doc := invoiceDocument{
		Number:      d.Number,
		Date:        d.Date,
		ProjectName: d.ProjectName,
		Payer: payerDocument{
			Name:        d.Payer.Name,
			Email:       d.Payer.Email,
			Address:     d.Payer.Address,
			DateOfBirth: d.Payer.DateOfBirth,
		},
		Client:   clientDocument(d.Client),
		Bank:     bankDocument(d.Bank),
		Currency: string(d.Currency),
		Notes:    d.Notes,
		Items:    make([]lineItemDocument, 0, len(d.Items)),
		Overtime: make([]overtimeDocument, 0, len(d.OvertimeEntries)),
		Expenses: make([]customExpenseDocument, 0, len(d.CustomExpenseEntries)),
	}
	for _, it := range d.Items {
		doc.Items = append(doc.Items, lineItemDocument(it))
	}
	for _, oe := range d.OvertimeEntries {
		doc.Overtime = append(doc.Overtime, overtimeDocument{
			Date:     oe.Date,
			Hours:    oe.Hours,
			RateType: oe.RateType.String(),
		})
	}
	for _, ce := range d.CustomExpenseEntries {
		doc.Expenses = append(doc.Expenses, customExpenseDocument(ce))
	}
	return doc
}

func (doc invoiceDocument) toDomain() invoice.InvoiceData {
	d := invoice.InvoiceData{
		Number:      doc.Number,
		Date:        doc.Date,
		ProjectName: doc.ProjectName,
		Payer: invoice.Payer{
			Name:        doc.Payer.Name,
			Email:       doc.Payer.Email,
			Address:     doc.Payer.Address,
			DateOfBirth: doc.Payer.DateOfBirth,
		},
		Client:               invoice.Client(doc.Client),
		Bank:                 invoice.BankDetails(doc.Bank),
		Currency:             valueobject.Currency(doc.Currency),
		Notes:                doc.Notes,
		Items:                make([]invoice.LineItem, 0, len(doc.Items)),
		OvertimeEntries:      make([]invoice.OvertimeEntry, 0, len(doc.Overtime)),
		CustomExpenseEntries: make([]invoice.CustomExpenseEntry, 0, len(doc.Expenses)),
	}
	for _, it := range doc.Items {
		d.Items = append(d.Items, invoice.LineItem(it))
	}
	for _, oe := range doc.Overtime {
		d.OvertimeEntries = append(d.OvertimeEntries, invoice.OvertimeEntry{
			Date:     oe.Date,
			Hours:    oe.Hours,
			RateType: invoice.RateType(oe.RateType),
		})
	}
	for _, ce := range doc.Expenses {
		d.CustomExpenseEntries = append(d.CustomExpenseEntries, invoice.CustomExpenseEntry(ce))
	}
	return d
}
