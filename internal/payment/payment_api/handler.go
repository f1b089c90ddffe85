package payment_api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gatekeeper/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBytes = 64 << 10

type Handler struct {
	WebhookSecret string
	Logger        *logger.Logger
}

// HandleWebhook receives Stripe's payment confirmations. The purchase is
// already committed when the intent is created; this endpoint closes the
// loop on the charge outcome for reconciliation.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		h.Logger.Warn("STRIPE", fmt.Sprintf("Webhook signature verification failed: %v", err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.Logger.Error("STRIPE", fmt.Sprintf("Failed to parse %s event: %v", event.Type, err))
			http.Error(w, "invalid event payload", http.StatusBadRequest)
			return
		}
		h.Logger.LogPurchase(string(event.Type), intent.Metadata["purchase_id"],
			fmt.Sprintf("intent %s for %d %s", intent.ID, intent.Amount, intent.Currency))
	default:
		h.Logger.Debug("STRIPE", fmt.Sprintf("Ignoring webhook event type %s", event.Type))
	}

	w.WriteHeader(http.StatusOK)
}
