// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

var ErrInvalidEvent = errors.New("webhook event is missing checkout metadata")

type CheckoutService struct {
	engine   *Engine
	checkout payments.Checkout
	cfg      *config.Config
}

type CreateSessionRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
}

type CreateSessionResponse struct {
	URL string `json:"url"`
}

type OrderStatus struct {
	IsPaid bool `json:"isPaid"`
}

func NewCheckoutService(engine *Engine, checkout payments.Checkout, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		engine:   engine,
		checkout: checkout,
		cfg:      cfg,
	}
}

// CreateSession records an unpaid order for the actor's cart and opens a
// processor checkout session for it. The order is created by server code on
// the actor's behalf, since clients may not create orders directly.
func (s *CheckoutService) CreateSession(ctx context.Context, actor access.Actor, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	if actor.IsAnonymous() {
		return nil, &access.DeniedError{Collection: models.CollectionOrders, Operation: access.OpCreate, Anonymous: true}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	products, _, err := s.engine.Records().Find(ctx, models.CollectionProducts,
		store.Filter{store.Where("id", store.In, req.ProductIDs)}, store.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	var (
		productIDs []string
		lineItems  []payments.LineItem
	)
	for _, p := range products {
		priceID := p.Fields.String("priceId")
		if priceID == "" {
			continue
		}
		productIDs = append(productIDs, p.ID)
		lineItems = append(lineItems, payments.LineItem{PriceID: priceID, Quantity: 1})
	}
	if len(lineItems) == 0 {
		return nil, utils.FieldInvalid("productIds", "min", "none of the requested products can be purchased")
	}

	order, err := s.engine.Create(ctx, access.System, models.CollectionOrders, models.JSONB{
		"user":     actor.ID,
		"products": productIDs,
		"_isPaid":  false,
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.Payment.TransactionFeePriceID != "" {
		lineItems = append(lineItems, payments.LineItem{PriceID: s.cfg.Payment.TransactionFeePriceID, Quantity: 1})
	}

	url, err := s.checkout.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		LineItems:  lineItems,
		SuccessURL: fmt.Sprintf("%s/thank-you?orderId=%s", s.cfg.Frontend.BaseURL, order.ID),
		CancelURL:  fmt.Sprintf("%s/cart", s.cfg.Frontend.BaseURL),
		Metadata: map[string]string{
			"userId":  actor.ID,
			"orderId": order.ID,
		},
	})
	if err != nil {
		return nil, err
	}

	return &CreateSessionResponse{URL: url}, nil
}

// PollOrderStatus reports whether an order the actor can read has been paid.
func (s *CheckoutService) PollOrderStatus(ctx context.Context, actor access.Actor, orderID string) (*OrderStatus, error) {
	if _, err := s.engine.FindByID(ctx, actor, models.CollectionOrders, orderID); err != nil {
		return nil, err
	}

	order, err := s.engine.Records().FindByID(ctx, models.CollectionOrders, orderID)
	if err != nil {
		return nil, err
	}
	paid, _ := order.Fields["_isPaid"].(bool)
	return &OrderStatus{IsPaid: paid}, nil
}

// FulfillCheckout marks the order of a completed checkout as paid. Other
// event types are acknowledged and ignored.
func (s *CheckoutService) FulfillCheckout(ctx context.Context, event payments.Event) error {
	if event.Type != payments.EventCheckoutCompleted {
		logrus.WithFields(logrus.Fields{"event": event.ID, "type": event.Type}).Debug("ignoring webhook event")
		return nil
	}

	userID, orderID := event.Metadata["userId"], event.Metadata["orderId"]
	if userID == "" || orderID == "" {
		return ErrInvalidEvent
	}

	if _, err := s.engine.Records().FindByID(ctx, models.CollectionUsers, userID); err != nil {
		return fmt.Errorf("checkout user %s: %w", userID, err)
	}

	order, err := s.engine.Records().FindByID(ctx, models.CollectionOrders, orderID)
	if err != nil {
		return fmt.Errorf("checkout order %s: %w", orderID, err)
	}
	if models.RefFrom(order.Fields["user"]) != userID {
		return fmt.Errorf("order %s does not belong to user %s: %w", orderID, userID, ErrInvalidEvent)
	}

	if _, err := s.engine.Update(ctx, access.System, models.CollectionOrders, orderID, models.JSONB{"_isPaid": true}); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"order": orderID, "user": userID, "event": event.ID}).Info("order paid")
	return nil
}
