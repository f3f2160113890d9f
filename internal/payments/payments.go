// Package payments is the boundary to the remote pricing and checkout
// processor.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var ErrSyncFailed = errors.New("payment processor unavailable, please try again")

// SyncError wraps a processor failure. Its message is safe to log; callers
// facing clients should only report ErrSyncFailed.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("payment sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() []error {
	return []error{ErrSyncFailed, e.Err}
}

// PricingSync mints and updates the remote priced item mirroring a product.
// Amounts are integer minor units.
type PricingSync interface {
	CreatePricedItem(ctx context.Context, name string, unitAmountMinor int64, currency string) (itemID, priceID string, err error)
	UpdatePricedItem(ctx context.Context, itemID, name, priceID string) (string, string, error)
	// CreatePrice mints a new price on an existing item, prices being
	// immutable on the processor side.
	CreatePrice(ctx context.Context, itemID string, unitAmountMinor int64, currency string) (priceID string, err error)
}

type LineItem struct {
	PriceID  string
	Quantity int64
}

type CheckoutRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type Checkout interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (url string, err error)
}

// ToMinorUnits converts a whole-currency amount into minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
