package payment

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gatekeeper/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeService charges purchase totals through Stripe.
type StripeService struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

// NewStripeService creates a Stripe-backed payment service. Returns an
// error when STRIPE_SECRET_KEY is not configured; callers treat that as
// "card payment disabled" and pass a nil Payments into the purchase
// service.
func NewStripeService(log *logger.Logger) (*StripeService, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return nil, ErrStripeClientInitFailed
	}

	currency := os.Getenv("PAYMENT_CURRENCY")
	if currency == "" {
		currency = "zar"
	}

	sc := client.New(stripeKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{client: sc, currency: currency, log: log}, nil
}

// CreatePaymentIntent opens a payment for the purchase total and returns
// the intent's client secret for the buyer-side confirmation flow.
func (s *StripeService) CreatePaymentIntent(ctx context.Context, amountCents int64, purchaseID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("purchase_id", purchaseID)
	params.Context = ctx

	intent, err := s.client.PaymentIntents.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent for purchase %s: %v", purchaseID, err))
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Payment intent %s created for purchase %s (%d cents)", intent.ID, purchaseID, amountCents))
	return intent.ClientSecret, nil
}
