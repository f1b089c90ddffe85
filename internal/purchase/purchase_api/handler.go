package purchase_api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gatekeeper/internal/auth"
	"gatekeeper/internal/inventory"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/models"
	"gatekeeper/internal/purchase"
	"gatekeeper/internal/qr"
	"gatekeeper/internal/utils"
)

type Handler struct {
	PurchaseService *purchase.PurchaseService
	QRGenerator     *qr.QRGenerator
	Logger          *logger.Logger
}

type purchaseResponse struct {
	Receipt *models.Receipt   `json:"receipt"`
	QRCodes map[string]string `json:"qr_codes"` // ticket_id -> base64 PNG
}

// Purchase handles POST /api/purchase. The buyer comes from the auth
// context; the body carries the cart only.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.PurchaseService.Purchase(r.Context(), userID, req.Cart)
	if err != nil {
		h.writeError(w, err)
		return
	}

	qrCodes := make(map[string]string, len(receipt.Tickets))
	for _, ticket := range receipt.Tickets {
		png, err := h.QRGenerator.GenerateTicketQR(ticket.Code)
		if err != nil {
			// The purchase is committed; a broken QR render must not
			// fail it. The app can re-request the QR later.
			h.Logger.Error("PURCHASE_API", fmt.Sprintf("Failed to render QR for ticket %s: %v", ticket.TicketID, err))
			continue
		}
		qrCodes[ticket.TicketID] = base64.StdEncoding.EncodeToString(png)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(utils.SuccessResponse("purchase complete", purchaseResponse{
		Receipt: receipt,
		QRCodes: qrCodes,
	}))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, purchase.ErrEmptyCart), errors.Is(err, inventory.ErrInvalidQuantity):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(utils.ErrorResponse("invalid cart", err.Error()))
	case errors.Is(err, inventory.ErrTierNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(utils.ErrorResponse("unknown tier", err.Error()))
	case errors.Is(err, inventory.ErrCapacityExceeded):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(utils.ErrorResponse("sold out", err.Error()))
	case errors.Is(err, inventory.ErrTierUnavailable), errors.Is(err, purchase.ErrTiersBusy):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(utils.ErrorResponse("tier unavailable", err.Error()))
	case errors.Is(err, purchase.ErrPurchaseAborted):
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(utils.ErrorResponse("purchase failed, nothing was charged", err.Error()))
	default:
		h.Logger.Error("PURCHASE_API", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(utils.ErrorResponse("internal error", ""))
	}
}
