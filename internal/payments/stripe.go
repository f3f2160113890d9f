package payments

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
)

// StripeClient implements PricingSync and Checkout against Stripe. Every call
// is bounded by timeout.
type StripeClient struct {
	timeout time.Duration
}

func NewStripeClient(secretKey string, timeout time.Duration) *StripeClient {
	// Initialize Stripe
	stripe.Key = secretKey

	return &StripeClient{timeout: timeout}
}

func (c *StripeClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *StripeClient) CreatePricedItem(ctx context.Context, name string, unitAmountMinor int64, currency string) (string, string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Name: stripe.String(name),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(unitAmountMinor),
		},
	}
	params.Context = ctx

	p, err := product.New(params)
	if err != nil {
		return "", "", &SyncError{Op: "create product", Err: err}
	}
	if p.DefaultPrice == nil {
		return "", "", &SyncError{Op: "create product", Err: errMissingPrice}
	}
	return p.ID, p.DefaultPrice.ID, nil
}

func (c *StripeClient) UpdatePricedItem(ctx context.Context, itemID, name, priceID string) (string, string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	if priceID != "" {
		params.DefaultPrice = stripe.String(priceID)
	}
	params.Context = ctx

	p, err := product.Update(itemID, params)
	if err != nil {
		return "", "", &SyncError{Op: "update product", Err: err}
	}
	newPriceID := priceID
	if p.DefaultPrice != nil && p.DefaultPrice.ID != "" {
		newPriceID = p.DefaultPrice.ID
	}
	return p.ID, newPriceID, nil
}

func (c *StripeClient) CreatePrice(ctx context.Context, itemID string, unitAmountMinor int64, currency string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.PriceParams{
		Product:    stripe.String(itemID),
		Currency:   stripe.String(currency),
		UnitAmount: stripe.Int64(unitAmountMinor),
	}
	params.Context = ctx

	p, err := price.New(params)
	if err != nil {
		return "", &SyncError{Op: "create price", Err: err}
	}
	return p.ID, nil
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
	}
	for _, item := range req.LineItems {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(qty),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return "", &SyncError{Op: "create checkout session", Err: err}
	}
	return s.URL, nil
}
