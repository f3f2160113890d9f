package hooks

import (
	"context"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// SyncPricing mirrors a product onto the payment processor and stamps the
// returned stripeId and priceId onto the payload. Any processor failure
// aborts the write.
func SyncPricing(pricing payments.PricingSync, currency string) BeforeChange {
	return func(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error) {
		data := args.Data

		current := data
		var previous models.JSONB
		if args.Previous != nil {
			previous = args.Previous.Fields
			current = models.Merge(previous, data)
		}

		name := current.String("name")
		price, ok := current.Number("price")
		if !ok {
			return nil, utils.FieldInvalid("price", "required", "price is required")
		}
		amount := payments.ToMinorUnits(price)

		itemID := previous.String("stripeId")
		if args.Operation == access.OpCreate || itemID == "" {
			newItemID, newPriceID, err := pricing.CreatePricedItem(ctx, name, amount, currency)
			if err != nil {
				return nil, err
			}
			data["stripeId"] = newItemID
			data["priceId"] = newPriceID
			return data, nil
		}

		priceID := previous.String("priceId")
		prevPrice, hadPrice := previous.Number("price")
		if !hadPrice || payments.ToMinorUnits(prevPrice) != amount || priceID == "" {
			newPriceID, err := pricing.CreatePrice(ctx, itemID, amount, currency)
			if err != nil {
				return nil, err
			}
			priceID = newPriceID
		}

		itemID, priceID, err := pricing.UpdatePricedItem(ctx, itemID, name, priceID)
		if err != nil {
			return nil, err
		}
		data["stripeId"] = itemID
		data["priceId"] = priceID
		return data, nil
	}
}
