// Package mockapi simulates the customer's external client database API.
//
// Endpoints (mounted under /external/v1):
//
//	GET  /clients/lookup?phone=...   client info by phone
//	GET  /clients/{clientID}         client info by client code
//	POST /otp/send                   trigger OTP delivery
//	POST /otp/verify                 validate an OTP
package mockapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/whatsapp-agent/internal/api"
	"github.com/ashureev/whatsapp-agent/internal/store"
	"github.com/go-chi/chi/v5"
)

// Handler serves the mock external API backed by the user directory.
type Handler struct {
	repo store.Repository
	otps *OTPStore
}

// NewHandler creates the mock API handler.
func NewHandler(repo store.Repository, otps *OTPStore) *Handler {
	return &Handler{repo: repo, otps: otps}
}

// RegisterRoutes mounts the mock API under /external/v1.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/external/v1", func(r chi.Router) {
		r.Get("/clients/lookup", h.lookupByPhone)
		r.Get("/clients/{clientID}", h.lookupByClientID)
		r.Post("/otp/send", h.sendOTP)
		r.Post("/otp/verify", h.verifyOTP)
	})
}

type clientInfo struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type otpSendRequest struct {
	ClientID string `json:"client_id"`
}

type otpSendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type otpVerifyRequest struct {
	ClientID string `json:"client_id"`
	OTP      string `json:"otp"`
}

type otpVerifyResponse struct {
	Valid bool `json:"valid"`
}

func (h *Handler) lookupByPhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		api.Error(w, http.StatusBadRequest, "phone query parameter is required")
		return
	}

	user, err := h.repo.FindByPhone(r.Context(), phone)
	if err != nil {
		slog.Error("Mock API phone lookup failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "No client found for this phone number")
		return
	}

	api.JSON(w, http.StatusOK, clientInfo{ClientID: user.ClientCode, Name: user.Name, Email: user.Email})
}

func (h *Handler) lookupByClientID(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	user, err := h.repo.FindByClientCode(r.Context(), clientID)
	if err != nil {
		slog.Error("Mock API client code lookup failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "No client found for this ID")
		return
	}

	api.JSON(w, http.StatusOK, clientInfo{ClientID: user.ClientCode, Name: user.Name, Email: user.Email})
}

// sendOTP generates a code for the client. A real system would dispatch an
// email or SMS; the mock logs the code so testers can read it.
func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var body otpSendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientID == "" {
		api.Error(w, http.StatusBadRequest, "client_id is required")
		return
	}

	user, err := h.repo.FindByClientCode(r.Context(), body.ClientID)
	if err != nil {
		slog.Error("Mock API OTP send lookup failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "Client not found")
		return
	}

	code := h.otps.Generate(body.ClientID)
	slog.Info("📧 OTP issued",
		"name", user.Name,
		"client_id", body.ClientID,
		"code", code,
		"would_send_to", user.Email,
	)
	api.JSON(w, http.StatusOK, otpSendResponse{
		Success: true,
		Message: fmt.Sprintf("OTP sent to %s", user.Email),
	})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientID == "" {
		api.Error(w, http.StatusBadRequest, "client_id and otp are required")
		return
	}

	valid := h.otps.Verify(body.ClientID, body.OTP)
	if valid {
		slog.Info("OTP verified", "client_id", body.ClientID)
	} else {
		slog.Info("OTP verification failed", "client_id", body.ClientID)
	}
	api.JSON(w, http.StatusOK, otpVerifyResponse{Valid: valid})
}
