package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/falconhq/falcon/internal/brain"
	"github.com/falconhq/falcon/internal/middleware"
	"github.com/falconhq/falcon/internal/model"
	"github.com/falconhq/falcon/internal/resolver"
)

// MessageStore is the data surface the webhook path needs: the brain's read
// methods plus activity recording, so the chatbot writes through the same
// store the UI reads.
type MessageStore interface {
	brain.Store
	RecordActivity(ctx context.Context, event *model.ActivityEvent) error
}

// Sender delivers the reply text.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// WebhookHandler handles the provider's inbound message webhook.
type WebhookHandler struct {
	resolver  *resolver.Resolver
	store     MessageStore
	sender    Sender
	logger    *slog.Logger
	brainOpts brain.Options
}

// NewWebhookHandler creates a webhook ingress handler.
func NewWebhookHandler(res *resolver.Resolver, store MessageStore, sender Sender, logger *slog.Logger, brainOpts brain.Options) *WebhookHandler {
	return &WebhookHandler{
		resolver:  res,
		store:     store,
		sender:    sender,
		logger:    logger.With("handler", "webhook"),
		brainOpts: brainOpts,
	}
}

// Provider payload envelope. Every level is optional: the provider posts
// many event shapes (receipts, status updates) that carry no message at all,
// so absent fields mean "ignore", never "error".
type webhookEnvelope struct {
	Event    string       `json:"event"`
	Instance string       `json:"instance"`
	Data     *webhookData `json:"data"`
}

type webhookData struct {
	Key      *webhookKey     `json:"key"`
	PushName string          `json:"pushName"`
	Message  *webhookMessage `json:"message"`
}

type webhookKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type webhookMessage struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

// inboundMessage is a validated, actionable inbound text.
type inboundMessage struct {
	Sender string // channel address as delivered
	Digits string // digits-only phone extracted from the address
	Text   string
}

// parseInbound validates the envelope into an inbound message.
// Returns false for anything that is not an actionable user text: missing
// nesting, missing sender or body, or our own echoes.
func parseInbound(env *webhookEnvelope) (inboundMessage, bool) {
	if env == nil || env.Data == nil || env.Data.Key == nil || env.Data.Message == nil {
		return inboundMessage{}, false
	}
	if env.Data.Key.FromMe {
		return inboundMessage{}, false
	}

	text := env.Data.Message.Conversation
	if text == "" && env.Data.Message.ExtendedTextMessage != nil {
		text = env.Data.Message.ExtendedTextMessage.Text
	}

	sender := env.Data.Key.RemoteJid
	digits := extractDigits(sender)
	if digits == "" || strings.TrimSpace(text) == "" {
		return inboundMessage{}, false
	}

	return inboundMessage{Sender: sender, Digits: digits, Text: text}, true
}

// extractDigits takes the part of a channel address before any "@" suffix
// and strips everything that is not a digit.
func extractDigits(address string) string {
	if at := strings.IndexByte(address, '@'); at >= 0 {
		address = address[:at]
	}
	var b strings.Builder
	for _, c := range address {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Receive handles POST /webhook/falcon.
//
// Terminal states: ignored, user_not_found, falcon_disabled, success, or a
// generic 500. The channel user only ever sees a reply or silence.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		// Providers post shapes we never asked for; not an error.
		writeJSON(w, http.StatusOK, map[string]bool{"ignored": true})
		return
	}

	msg, ok := parseInbound(&env)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"ignored": true})
		return
	}

	account, err := h.resolver.Resolve(ctx, msg.Digits)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			// Unknown sender: stay silent, never reply to non-users.
			writeJSON(w, http.StatusOK, map[string]string{"status": "user_not_found"})
			return
		}
		h.logger.Error("resolver failed", "request_id", requestID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if !account.FalconEnabled {
		writeJSON(w, http.StatusOK, map[string]string{"status": "falcon_disabled"})
		return
	}

	// The inbound message itself counts as activity. Best effort: a failed
	// write must not cost the user their reply.
	if err := h.store.RecordActivity(ctx, &model.ActivityEvent{
		ID:         uuid.New().String(),
		AccountID:  account.ID,
		Kind:       model.ActivityAssistantMessage,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record activity", "request_id", requestID, "account_id", account.ID, "error", err)
	}

	b := brain.New(account, h.store, h.brainOpts)
	result, err := b.ProcessMessage(ctx, msg.Text)
	if err != nil {
		h.logger.Error("message processing failed",
			"request_id", requestID,
			"account_id", account.ID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	// Reply delivery is best effort: inbound processing succeeded either way.
	destination := h.resolver.ReplyAddress(account, msg.Digits)
	if err := h.sender.Send(ctx, destination, result.Text); err != nil {
		h.logger.Error("reply send failed",
			"request_id", requestID,
			"account_id", account.ID,
			"error", err,
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": result.Text,
	})
}
