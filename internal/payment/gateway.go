package payment

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be positive and representable in minor units")
	ErrPaymentFailed = errors.New("payment intent was rejected")
	ErrProviderDown  = errors.New("payment provider unavailable")
)

// Intent is a provider-side in-progress charge. ClientSecret lets the browser
// complete it.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment intents with an external processor.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
}

// ToMinorUnits converts a price in major units to the smallest currency unit,
// rounding half away from zero (19.99 -> 1999). Amounts that do not fit in an
// int64 are rejected.
func ToMinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrInvalidAmount
	}
	amount := decimal.NewFromFloat(price).Shift(2).Round(0)
	if !amount.IsPositive() || amount.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidAmount
	}
	return amount.IntPart(), nil
}
