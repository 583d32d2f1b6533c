package invoice

import (
	"fmt"
	"math"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RateType is the overtime multiplier category
type RateType string

const (
	RateOneAndHalf RateType = "1.5x"
	RateDouble     RateType = "2x"
)

// ParseRateType accepts the wire value or the enum name
func ParseRateType(s string) (RateType, error) {
	switch s {
	case string(RateOneAndHalf), "OneAndHalf":
		return RateOneAndHalf, nil
	case string(RateDouble), "Double":
		return RateDouble, nil
	default:
		return "", fmt.Errorf("unknown overtime rate type %q", s)
	}
}

// Multiplier returns the factor applied to the base hourly rate
func (r RateType) Multiplier() (decimal.Decimal, error) {
	switch r {
	case RateOneAndHalf:
		return decimal.RequireFromString("1.5"), nil
	case RateDouble:
		return decimal.NewFromInt(2), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown overtime rate type %q", string(r))
	}
}

// IsValid reports whether r is one of the known rate types
func (r RateType) IsValid() bool {
	_, err := r.Multiplier()
	return err == nil
}

// String returns the wire value
func (r RateType) String() string {
	return string(r)
}

// LineItem is a flat billable entry
type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   float64
	Cost        *float64
}

// EffectiveCost is the cost override when present, otherwise quantity × unit price
func (li LineItem) EffectiveCost() decimal.Decimal {
	if li.Cost != nil {
		return decimal.NewFromFloat(*li.Cost)
	}
	return decimal.NewFromInt(int64(li.Quantity)).Mul(decimal.NewFromFloat(li.UnitPrice))
}

func (li LineItem) check(field string) []shared.FieldError {
	var problems []shared.FieldError
	if li.Quantity < 0 {
		problems = append(problems, problem(field+".quantity", "must not be negative"))
	}
	problems = append(problems, checkAmount(field+".unit_price", li.UnitPrice)...)
	if li.Cost != nil {
		problems = append(problems, checkAmount(field+".cost", *li.Cost)...)
	}
	return problems
}

// OvertimeEntry is a date-stamped block of hours billed at a multiple of the base rate
type OvertimeEntry struct {
	Date     time.Time
	Hours    float64
	RateType RateType
}

// HourlyRate is baseHourlyRate × multiplier(rate type)
func (oe OvertimeEntry) HourlyRate(baseHourlyRate decimal.Decimal) (decimal.Decimal, error) {
	m, err := oe.RateType.Multiplier()
	if err != nil {
		return decimal.Zero, err
	}
	return baseHourlyRate.Mul(m), nil
}

// Cost is hours × hourly rate
func (oe OvertimeEntry) Cost(baseHourlyRate decimal.Decimal) (decimal.Decimal, error) {
	rate, err := oe.HourlyRate(baseHourlyRate)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(oe.Hours).Mul(rate), nil
}

func (oe OvertimeEntry) check(field string) []shared.FieldError {
	var problems []shared.FieldError
	if !isFinite(oe.Hours) {
		problems = append(problems, problem(field+".hours", "must be a finite number"))
	} else if oe.Hours <= 0 {
		problems = append(problems, problem(field+".hours", "must be positive"))
	}
	if !oe.RateType.IsValid() {
		problems = append(problems, problem(field+".rate_type", fmt.Sprintf("unknown rate type %q", string(oe.RateType))))
	}
	return problems
}

// CustomExpenseEntry is an ad-hoc reimbursable cost. Cost is taken as supplied
// and is never recomputed from quantity and unit price.
type CustomExpenseEntry struct {
	Description string
	Quantity    int
	UnitPrice   float64
	Cost        float64
}

func (ce CustomExpenseEntry) check(field string) []shared.FieldError {
	var problems []shared.FieldError
	if ce.Quantity <= 0 {
		problems = append(problems, problem(field+".quantity", "must be positive"))
	}
	problems = append(problems, checkAmount(field+".unit_price", ce.UnitPrice)...)
	problems = append(problems, checkAmount(field+".cost", ce.Cost)...)
	return problems
}

func problem(field, message string) shared.FieldError {
	return shared.FieldError{Field: field, Message: message}
}

func checkAmount(field string, v float64) []shared.FieldError {
	if !isFinite(v) {
		return []shared.FieldError{problem(field, "must be a finite number")}
	}
	if v < 0 {
		return []shared.FieldError{problem(field, "must not be negative")}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
