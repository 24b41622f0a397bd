package wallet

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customer"
)

// BalanceReader supplies the wallet balance snapshot used as a read-only
// precondition during validation. Nothing here moves money.
type BalanceReader interface {
	Balance(ctx context.Context, customerID string) (decimal.Decimal, error)
}

// StripeReader reads the customer's stored balance from Stripe.
type StripeReader struct{}

// NewStripeReader initializes the stripe client with the STRIPE_API_KEY env var.
func NewStripeReader() *StripeReader {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeReader{}
}

// Balance returns the customer balance in euros. Stripe reports cents and
// uses negative values for credit, so the usable balance is the negated
// amount floored at zero.
func (s *StripeReader) Balance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	c, err := customer.Get(customerID, nil)
	if err != nil {
		return decimal.Zero, err
	}
	bal := decimal.NewFromInt(-c.Balance).Div(decimal.NewFromInt(100))
	if bal.IsNegative() {
		return decimal.Zero, nil
	}
	return bal, nil
}
