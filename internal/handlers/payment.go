// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/payments"
	"github.com/digitalhippo/hippo-backend/internal/services"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// Stripe payloads are small; anything larger is not a real event.
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	checkoutService *services.CheckoutService
	verifier        payments.EventVerifier
}

func NewPaymentHandler(checkoutService *services.CheckoutService, verifier payments.EventVerifier) *PaymentHandler {
	return &PaymentHandler{
		checkoutService: checkoutService,
		verifier:        verifier,
	}
}

// POST /api/webhooks/stripe
func (h *PaymentHandler) Webhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequestResponse(c, "", nil)
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).Warn("Rejected webhook payload")
		code := "INVALID_EVENT"
		if errors.Is(err, payments.ErrInvalidSignature) {
			code = "INVALID_SIGNATURE"
		}
		utils.ErrorResponse(c, http.StatusBadRequest, code, i18n.T(lang, i18n.KeyPaymentInvalidEvent), nil)
		return
	}

	if err := h.checkoutService.FulfillCheckout(c.Request.Context(), event); err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			logrus.WithError(err).WithField("event", event.ID).Warn("Unusable webhook event")
			utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_EVENT", i18n.T(lang, i18n.KeyPaymentInvalidEvent), nil)
			return
		}
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}
