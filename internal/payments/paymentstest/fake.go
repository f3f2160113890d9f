// Package paymentstest provides in-memory payment processor fakes for tests.
package paymentstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/digitalhippo/hippo-backend/internal/payments"
)

type CreateCall struct {
	Name     string
	Amount   int64
	Currency string
}

type UpdateCall struct {
	ItemID  string
	Name    string
	PriceID string
}

type PriceCall struct {
	ItemID   string
	Amount   int64
	Currency string
}

// Pricing records every call. Setting Err makes all calls fail with a
// *payments.SyncError.
type Pricing struct {
	mu      sync.Mutex
	seq     int
	Err     error
	Creates []CreateCall
	Updates []UpdateCall
	Prices  []PriceCall
}

func (p *Pricing) next(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s_%d", prefix, p.seq)
}

func (p *Pricing) CreatePricedItem(ctx context.Context, name string, amount int64, currency string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Creates = append(p.Creates, CreateCall{Name: name, Amount: amount, Currency: currency})
	if p.Err != nil {
		return "", "", &payments.SyncError{Op: "create product", Err: p.Err}
	}
	return p.next("prod"), p.next("price"), nil
}

func (p *Pricing) UpdatePricedItem(ctx context.Context, itemID, name, priceID string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Updates = append(p.Updates, UpdateCall{ItemID: itemID, Name: name, PriceID: priceID})
	if p.Err != nil {
		return "", "", &payments.SyncError{Op: "update product", Err: p.Err}
	}
	return itemID, priceID, nil
}

func (p *Pricing) CreatePrice(ctx context.Context, itemID string, amount int64, currency string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prices = append(p.Prices, PriceCall{ItemID: itemID, Amount: amount, Currency: currency})
	if p.Err != nil {
		return "", &payments.SyncError{Op: "create price", Err: p.Err}
	}
	return p.next("price"), nil
}

type Checkout struct {
	mu       sync.Mutex
	Err      error
	URL      string
	Requests []payments.CheckoutRequest
}

func (c *Checkout) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if c.Err != nil {
		return "", &payments.SyncError{Op: "create checkout session", Err: c.Err}
	}
	if c.URL == "" {
		return "https://checkout.example/session", nil
	}
	return c.URL, nil
}

// Verifier accepts payloads whose signature equals Signature.
type Verifier struct {
	Signature string
	Event     payments.Event
	Calls     int
}

func (v *Verifier) Verify(payload []byte, signature string) (payments.Event, error) {
	v.Calls++
	if signature == "" || signature != v.Signature {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	return v.Event, nil
}
