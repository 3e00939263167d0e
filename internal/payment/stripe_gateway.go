package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway with a per-instance Stripe client rather
// than the SDK's global key.
type StripeGateway struct {
	client *client.API
}

// NewStripeGateway creates a StripeGateway for the given secret key.
func NewStripeGateway(apiKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{client: sc}
}

// CreateIntent creates a card PaymentIntent for amountMinor in currency.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// mapStripeError converts SDK errors into this package's errors so callers
// never import stripe-go.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrProviderDown, stripeErr.Msg)
		}
		return fmt.Errorf("%w: %s (%s)", ErrPaymentFailed, stripeErr.Msg, stripeErr.Code)
	}
	return fmt.Errorf("stripe: %w", err)
}
