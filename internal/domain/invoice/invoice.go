package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// Payer is the freelancer issuing the invoice
type Payer struct {
	Name        string
	Email       string
	Address     string
	DateOfBirth *time.Time
}

// Client is the party being billed
type Client struct {
	Name        string
	Address     string
	AttentionTo string
}

// BankDetails are printed in the payment section
type BankDetails struct {
	IBAN          string
	SwiftBIC      string
	AccountNumber string
	SortCode      string
	BankAddress   string
}

// InvoiceData describes one invoice. It is built once from caller input and
// only read afterwards.
type InvoiceData struct {
	Number               string
	Date                 time.Time
	ProjectName          string
	Payer                Payer
	Client               Client
	Bank                 BankDetails
	Currency             valueobject.Currency
	Notes                string
	Items                []LineItem
	OvertimeEntries      []OvertimeEntry
	CustomExpenseEntries []CustomExpenseEntry
}

// CurrencyOrDefault returns the invoice currency, falling back to GBP
func (d InvoiceData) CurrencyOrDefault() valueobject.Currency {
	if d.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return d.Currency
}

// Validate checks the shape an invoice must have before it can be totalled,
// stored or rendered.
func (d InvoiceData) Validate() error {
	var problems []shared.FieldError
	required := []struct {
		field string
		value string
	}{
		{"number", d.Number},
		{"payer.name", d.Payer.Name},
		{"client.name", d.Client.Name},
		{"bank.iban", d.Bank.IBAN},
		{"bank.swift_bic", d.Bank.SwiftBIC},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, problem(r.field, "is required"))
		}
	}
	if d.Date.IsZero() {
		problems = append(problems, problem("date", "is required"))
	}
	if d.Currency != "" {
		if _, err := valueobject.ParseCurrency(string(d.Currency)); err != nil {
			problems = append(problems, problem("currency", err.Error()))
		}
	}
	problems = append(problems, d.amountProblems()...)
	if err := shared.NewValidationErrors(problems); err != nil {
		return err
	}
	return nil
}

// CheckAmounts rejects non-finite and out-of-range numbers in all entries
func (d InvoiceData) CheckAmounts() error {
	if err := shared.NewValidationErrors(d.amountProblems()); err != nil {
		return err
	}
	return nil
}

func (d InvoiceData) amountProblems() []shared.FieldError {
	var problems []shared.FieldError
	for i, it := range d.Items {
		problems = append(problems, it.check(fmt.Sprintf("items[%d]", i))...)
	}
	for i, oe := range d.OvertimeEntries {
		problems = append(problems, oe.check(fmt.Sprintf("overtime_entries[%d]", i))...)
	}
	for i, ce := range d.CustomExpenseEntries {
		problems = append(problems, ce.check(fmt.Sprintf("custom_expense_entries[%d]", i))...)
	}
	return problems
}

// SuggestedFilename builds "{YYYYMMDD} {projectName} {payerName} {number}.pdf".
// Empty parts are skipped and path separators are replaced so the result is
// always a single file name.
func SuggestedFilename(d InvoiceData) string {
	parts := []string{
		d.Date.Format("20060102"),
		d.ProjectName,
		d.Payer.Name,
		d.Number,
	}
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(filenameReplacer.Replace(p))
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ") + ".pdf"
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", "\"", "'", "\n", " ", "\r", " ")
