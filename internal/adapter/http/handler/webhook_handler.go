package handler

import (
	"errors"
	"io"

	"invest-ledger/internal/adapter/http/dto"
	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"
	"invest-ledger/pkg/apperror"
	"invest-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// signatureHeaders maps each platform to the header its webhooks are
// authenticated with.
var signatureHeaders = map[domain.Platform]string{
	domain.PlatformPaystack:    "x-paystack-signature",
	domain.PlatformFlutterwave: "verif-hash",
	domain.PlatformMono:        "mono-webhook-secret",
}

// WebhookHandler receives gateway webhooks and hands verified events to the
// reconciliation service.
type WebhookHandler struct {
	gateways     map[domain.Platform]ports.GatewayClient
	reconcileSvc ports.ReconcileService
	log          zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(clients []ports.GatewayClient, reconcileSvc ports.ReconcileService, log zerolog.Logger) *WebhookHandler {
	gateways := make(map[domain.Platform]ports.GatewayClient, len(clients))
	for _, c := range clients {
		gateways[c.Platform()] = c
	}
	return &WebhookHandler{
		gateways:     gateways,
		reconcileSvc: reconcileSvc,
		log:          log,
	}
}

// Handle returns the handler for POST /webhooks/<platform>.
func (h *WebhookHandler) Handle(platform domain.Platform) gin.HandlerFunc {
	return func(c *gin.Context) {
		gateway, ok := h.gateways[platform]
		if !ok {
			response.Error(c, apperror.InternalError(errors.New("gateway not configured")))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.Validation("unreadable request body"))
			return
		}

		header := c.GetHeader(signatureHeaders[platform])
		if !gateway.VerifySignature(body, header) {
			h.log.Warn().
				Str("platform", string(platform)).
				Str("ip", c.ClientIP()).
				Msg("webhook signature verification failed")
			response.Error(c, apperror.ErrInvalidWebhookSignature())
			return
		}

		event, err := gateway.ParseEvent(body)
		if err != nil {
			h.log.Warn().Err(err).
				Str("platform", string(platform)).
				Msg("webhook payload parse failed")
			response.Error(c, apperror.Validation("malformed webhook payload"))
			return
		}

		if err := h.reconcileSvc.Process(c.Request.Context(), *event); err != nil {
			// Duplicates are acknowledged with 200 so the gateway stops
			// redelivering an event we have already settled.
			if isDuplicateError(err) {
				response.OK(c, dto.WebhookAck{Status: "duplicate"})
				return
			}
			response.Error(c, err)
			return
		}

		response.OK(c, dto.WebhookAck{Status: "processed"})
	}
}

func isDuplicateError(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case "WBH_002", "TXN_001", "TXN_002":
		return true
	}
	return false
}
