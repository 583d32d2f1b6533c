package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{name: "upper case", input: "GBP", want: GBP},
		{name: "lower case with spaces", input: " eur ", want: EUR},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown code", input: "XYZ", wantErr: true},
		{name: "wrong length", input: "POUND", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrencyScale(t *testing.T) {
	assert.Equal(t, int32(2), GBP.Scale())
	assert.Equal(t, int32(2), EUR.Scale())
	assert.Equal(t, int32(0), JPY.Scale())
	assert.Equal(t, int32(2), Currency("???").Scale())
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), GBP)
		require.NoError(t, err)
		assert.Equal(t, GBP, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", GBP)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", GBP)
		assert.Error(t, err)
	})
}

func TestMoneyAdd(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		a, _ := NewMoneyFromString("525", GBP)
		b, _ := NewMoneyFromString("1050", GBP)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "1575.00", sum.StringFixed())
	})

	t.Run("different currencies", func(t *testing.T) {
		_, err := Zero(GBP).Add(Zero(EUR))
		assert.Error(t, err)
		assert.Panics(t, func() { Zero(GBP).MustAdd(Zero(EUR)) })
	})
}

func TestMoneyMultiply(t *testing.T) {
	rate, _ := NewMoneyFromString("52.50", GBP)
	cost := rate.Multiply(decimal.NewFromFloat(1.5)).Multiply(decimal.NewFromInt(2))
	assert.Equal(t, "157.50", cost.StringFixed())
	assert.False(t, cost.IsNegative())
	assert.False(t, cost.IsZero())
}

func TestMoneyEquals(t *testing.T) {
	a, _ := NewMoneyFromString("10.0", GBP)
	b, _ := NewMoneyFromString("10", GBP)
	c, _ := NewMoneyFromString("10", EUR)
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestMoneyString(t *testing.T) {
	m, _ := NewMoneyFromString("1575", GBP)
	assert.Equal(t, "1575.00 GBP", m.String())

	y, _ := NewMoneyFromString("1575", JPY)
	assert.Equal(t, "1575 JPY", y.String())
}

func TestMoneyJSON(t *testing.T) {
	m, _ := NewMoneyFromString("157.5", GBP)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"157.50","currency":"GBP"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equals(m))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc","currency":"GBP"}`), &back))
}
