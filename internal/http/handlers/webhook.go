package handlers

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/civicline/grievance-intake/internal/dialogue"
	"github.com/civicline/grievance-intake/internal/messaging"
	"github.com/civicline/grievance-intake/pkg/logging"
)

var webhookTracer = otel.Tracer("grievance.internal.http.webhook")

// WebhookHandler terminates the Twilio message webhook: it validates the
// signature, hands the turn to the dialogue service, and answers with TwiML
// carrying the reply. It always responds 200 with a message once the payload
// parses; conversational failures surface as reply text, not HTTP errors.
type WebhookHandler struct {
	dialogue  *dialogue.Service
	authToken string
	logger    *logging.Logger
}

// NewWebhookHandler creates the webhook handler. An empty authToken disables
// signature validation, for local development only.
func NewWebhookHandler(svc *dialogue.Service, authToken string, logger *logging.Logger) *WebhookHandler {
	if svc == nil {
		panic("handlers: dialogue service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		dialogue:  svc,
		authToken: authToken,
		logger:    logger,
	}
}

// TwilioMessage handles POST /webhooks/twilio/messages requests.
func (h *WebhookHandler) TwilioMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "webhook.twilio.message")
	defer span.End()

	if h.authToken != "" {
		webhookURL := messaging.BuildWebhookURL(r)
		if !messaging.ValidateTwilioSignature(r, h.authToken, webhookURL) {
			h.logger.Warn("invalid twilio signature", "url", webhookURL)
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := messaging.ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if webhook.From == "" {
		err := errors.New("missing sender")
		h.logger.Error("invalid twilio payload", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("grievance.twilio.message_sid", webhook.MessageSid),
		attribute.String("grievance.twilio.from", webhook.From),
	)

	reply := h.dialogue.ProcessTurn(ctx, dialogue.InboundMessage{
		From:             webhook.From,
		Body:             webhook.Body,
		NumMedia:         webhook.NumMedia,
		MediaURL:         webhook.MediaURL,
		MediaContentType: webhook.MediaContentType,
	})

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(messaging.MessagingResponse(reply)))
}

// HealthCheck handles GET /health requests.
func (h *WebhookHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
