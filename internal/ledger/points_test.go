package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPointsForAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   int64
	}{
		{"whole amount at unit rate", "25.00", "1.0", 25},
		{"fraction floors down", "24.99", "1.0", 24},
		{"half rate floors", "25.00", "0.5", 12},
		{"rate above one", "10.00", "1.5", 15},
		{"small amount rounds to zero", "0.99", "1.0", 0},
		{"zero amount", "0", "1.0", 0},
		{"no float drift", "0.29", "100", 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			rate := decimal.RequireFromString(tt.rate)
			assert.Equal(t, tt.want, PointsForAmount(amount, rate))
		})
	}
}

func TestValidRate(t *testing.T) {
	assert.True(t, ValidRate(decimal.RequireFromString("1.0")))
	assert.True(t, ValidRate(decimal.RequireFromString("0.01")))
	assert.False(t, ValidRate(decimal.Zero))
	assert.False(t, ValidRate(decimal.RequireFromString("-1")))
}

func TestValidStepQuantity(t *testing.T) {
	// step 100 models weight products sold in 100g increments
	assert.True(t, ValidStepQuantity(200, 100))
	assert.True(t, ValidStepQuantity(100, 100))
	assert.False(t, ValidStepQuantity(150, 100))
	assert.False(t, ValidStepQuantity(0, 100))
	assert.False(t, ValidStepQuantity(-100, 100))

	// piece products have no step constraint
	assert.True(t, ValidStepQuantity(1, 1))
	assert.True(t, ValidStepQuantity(7, 1))
	assert.True(t, ValidStepQuantity(3, 0))
	assert.False(t, ValidStepQuantity(0, 1))
}
