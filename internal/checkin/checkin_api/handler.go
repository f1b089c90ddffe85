package checkin_api

import (
	"encoding/json"
	"net/http"

	"gatekeeper/internal/checkin"
	"gatekeeper/internal/logger"
	"gatekeeper/internal/qr"
)

type Handler struct {
	CheckInService *checkin.CheckInService
	QRGenerator    *qr.QRGenerator
	Logger         *logger.Logger
}

type checkInRequest struct {
	Code        string `json:"code,omitempty"`
	EncryptedQR string `json:"encrypted_qr,omitempty"`
}

// CheckIn handles POST /api/checkin. Scanners send either a scanned QR
// payload or the plain redemption code typed at the door. The three
// outcomes are classifications, not errors: every well-formed scan gets
// a 200 with the outcome in the body.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	code := req.Code
	if req.EncryptedQR != "" {
		decrypted, err := h.QRGenerator.Decrypt(req.EncryptedQR)
		if err != nil {
			http.Error(w, "Invalid QR code: "+err.Error(), http.StatusBadRequest)
			return
		}
		code = decrypted
	}
	if code == "" {
		http.Error(w, "code or encrypted_qr is required", http.StatusBadRequest)
		return
	}

	result, err := h.CheckInService.Validate(r.Context(), code)
	if err != nil {
		h.Logger.Error("CHECKIN_API", err.Error())
		http.Error(w, "Check-in failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
