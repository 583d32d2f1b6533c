package invoice

import (
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var standardHourlyRate = decimal.RequireFromString("52.50")

// BaseHourlyRate is the overtime base rate. The calculator and the document
// composer both read it here so their figures cannot diverge.
func BaseHourlyRate() decimal.Decimal {
	return standardHourlyRate
}

// NormalizedItem is a line item with its effective cost resolved
type NormalizedItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Cost        decimal.Decimal
}

// Totals are the subtotal and total figures of an invoice
type Totals struct {
	Items               []NormalizedItem
	ItemsTotal          valueobject.Money
	OvertimeTotal       valueobject.Money
	CustomExpensesTotal valueobject.Money
	TotalAmount         valueobject.Money
	Currency            valueobject.Currency
}

// ComputeTotals normalizes every entry and sums the three categories.
// Quantity-0 items still count. Expense costs are summed as supplied.
// It has no side effects and returns identical results for identical input.
func ComputeTotals(data InvoiceData, baseHourlyRate decimal.Decimal) (Totals, error) {
	if baseHourlyRate.IsNegative() {
		return Totals{}, shared.NewValidationError("base_hourly_rate", "must not be negative")
	}
	if err := data.CheckAmounts(); err != nil {
		return Totals{}, err
	}

	cur := data.CurrencyOrDefault()
	itemsTotal := decimal.Zero
	items := make([]NormalizedItem, 0, len(data.Items))
	for _, it := range data.Items {
		cost := it.EffectiveCost()
		items = append(items, NormalizedItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   decimal.NewFromFloat(it.UnitPrice),
			Cost:        cost,
		})
		itemsTotal = itemsTotal.Add(cost)
	}

	overtimeTotal := decimal.Zero
	for _, oe := range data.OvertimeEntries {
		cost, err := oe.Cost(baseHourlyRate)
		if err != nil {
			return Totals{}, shared.NewValidationError("overtime_entries.rate_type", err.Error())
		}
		overtimeTotal = overtimeTotal.Add(cost)
	}

	expensesTotal := decimal.Zero
	for _, ce := range data.CustomExpenseEntries {
		expensesTotal = expensesTotal.Add(decimal.NewFromFloat(ce.Cost))
	}

	itemsMoney, _ := valueobject.NewMoney(itemsTotal, cur)
	overtimeMoney, _ := valueobject.NewMoney(overtimeTotal, cur)
	expensesMoney, _ := valueobject.NewMoney(expensesTotal, cur)

	return Totals{
		Items:               items,
		ItemsTotal:          itemsMoney,
		OvertimeTotal:       overtimeMoney,
		CustomExpensesTotal: expensesMoney,
		TotalAmount:         itemsMoney.MustAdd(overtimeMoney).MustAdd(expensesMoney),
		Currency:            cur,
	}, nil
}
