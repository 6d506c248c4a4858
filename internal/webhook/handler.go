// Package webhook receives WhatsApp Business webhook events and replies.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/whatsapp-agent/internal/api"
	"github.com/ashureev/whatsapp-agent/internal/router"
	"github.com/ashureev/whatsapp-agent/internal/session"
	"github.com/ashureev/whatsapp-agent/internal/translog"
	"github.com/go-chi/chi/v5"
)

const loggedOutReply = "👋 You have been logged out. Send any message to start again."

// Handler serves the Meta webhook verification handshake and inbound
// message dispatch.
type Handler struct {
	verifyToken string
	router      *router.Router
	sessions    *session.Manager
	sender      Sender
	transcripts *translog.Logger
}

// NewHandler creates the webhook handler. transcripts may be nil.
func NewHandler(verifyToken string, rt *router.Router, sessions *session.Manager, sender Sender, transcripts *translog.Logger) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		router:      rt,
		sessions:    sessions,
		sender:      sender,
		transcripts: transcripts,
	}
}

// RegisterRoutes mounts the webhook endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.verify)
	r.Post("/webhook", h.receive)
}

// verify answers the Meta webhook verification challenge.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		slog.Info("Webhook verified successfully")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge))
		return
	}

	slog.Warn("Webhook verification failed", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Inbound payload shape from the Meta Cloud API, reduced to the fields
// this service consumes.
type inboundPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// receive processes incoming WhatsApp messages. Non-message events and
// malformed entries are acknowledged and ignored so Meta does not retry.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var payload inboundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Debug("Received undecodable webhook event, ignoring", "error", err)
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	for _, msg := range h.messages(payload) {
		h.handleMessage(r, msg)
	}

	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) messages(payload inboundPayload) []inboundMessage {
	var out []inboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			out = append(out, change.Value.Messages...)
		}
	}
	return out
}

func (h *Handler) handleMessage(r *http.Request, msg inboundMessage) {
	party := msg.From
	text := msg.Text.Body
	if party == "" || text == "" {
		return
	}

	slog.Info("Message received", "from", party, "preview", preview(text))
	h.transcripts.Record(translog.Event{
		Party:     party,
		Direction: translog.DirectionInbound,
		Text:      text,
	})

	var reply string
	if strings.ToLower(strings.TrimSpace(text)) == "logout" {
		h.sessions.Clear(party)
		reply = loggedOutReply
	} else {
		reply = h.router.Route(r.Context(), party, text).Text
	}

	h.transcripts.Record(translog.Event{
		Party:     party,
		Direction: translog.DirectionOutbound,
		Text:      reply,
	})
	if err := h.sender.Send(r.Context(), party, reply); err != nil {
		slog.Error("Failed to send reply", "to", party, "error", err)
	}
}

func preview(text string) string {
	if len(text) > 80 {
		return text[:80]
	}
	return text
}
