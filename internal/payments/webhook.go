package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	errMissingPrice     = errors.New("processor returned no default price")
)

const EventCheckoutCompleted = "checkout.session.completed"

// Event is a verified processor event.
type Event struct {
	ID   string
	Type string
	// Metadata is the metadata of the event's checkout session, if any.
	Metadata map[string]string
}

// EventVerifier authenticates a raw webhook payload before it is parsed.
type EventVerifier interface {
	Verify(payload []byte, signature string) (Event, error)
}

type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (Event, error) {
	if v.secret == "" || signature == "" {
		return Event{}, ErrInvalidSignature
	}

	if err := webhook.ValidatePayload(payload, signature, v.secret); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Endpoints pinned to an older API version still deliver the fields we read.
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.APIVersion != "" && ev.APIVersion != stripe.APIVersion {
		logrus.WithFields(logrus.Fields{
			"event":       ev.ID,
			"api_version": ev.APIVersion,
			"expected":    stripe.APIVersion,
		}).Warn("Webhook event API version differs from client")
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type == EventCheckoutCompleted && ev.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return Event{}, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		out.Metadata = cs.Metadata
	}
	return out, nil
}
