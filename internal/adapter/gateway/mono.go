package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"invest-ledger/config"
	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// MonoClient implements ports.GatewayClient for Mono direct-debit payments.
type MonoClient struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	http          *http.Client
	log           zerolog.Logger
}

// NewMonoClient creates a new Mono gateway client.
func NewMonoClient(cfg config.MonoConfig, timeout time.Duration, log zerolog.Logger) *MonoClient {
	return &MonoClient{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       cfg.BaseURL,
		http:          &http.Client{Timeout: timeout},
		log:           log.With().Str("gateway", "mono").Logger(),
	}
}

// Platform returns the gateway's platform identifier.
func (c *MonoClient) Platform() domain.Platform {
	return domain.PlatformMono
}

// VerifySignature checks the mono-webhook-secret header against the
// configured shared secret (plain compare, like Flutterwave).
func (c *MonoClient) VerifySignature(_ []byte, header string) bool {
	if c.webhookSecret == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.webhookSecret), []byte(header)) == 1
}

type monoEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        string `json:"id"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// ParseEvent extracts the canonical webhook request from a Mono body.
func (c *MonoClient) ParseEvent(body []byte) (*ports.WebhookRequest, error) {
	var evt monoEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("parse mono event: %w", err)
	}
	if evt.Data.ID == "" || evt.Data.Reference == "" {
		return nil, fmt.Errorf("mono event missing id or reference")
	}
	return &ports.WebhookRequest{
		Platform:   domain.PlatformMono,
		EventID:    evt.Data.ID,
		Action:     evt.Event,
		Reference:  evt.Data.Reference,
		RawPayload: body,
	}, nil
}

type monoVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string       `json:"status"`
		Reference string       `json:"reference"`
		Amount    int64        `json:"amount"` // kobo
		Meta      wireMetadata `json:"meta"`
	} `json:"data"`
}

// VerifyTransaction confirms a payment with Mono's verification API.
// Amounts are already in kobo on the wire.
func (c *MonoClient) VerifyTransaction(ctx context.Context, reference string) (*ports.GatewayVerification, error) {
	endpoint := c.baseURL + "/v2/payments/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build mono verify request: %w", err)
	}
	req.Header.Set("mono-sec-key", c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mono verify call: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var vr monoVerifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode mono verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || vr.Data.Status != "successful" {
		c.log.Warn().
			Str("reference", reference).
			Int("http_status", resp.StatusCode).
			Str("gateway_status", vr.Data.Status).
			Msg("mono verification did not succeed")
		return &ports.GatewayVerification{Succeeded: false, Raw: body}, nil
	}

	intent, err := vr.Data.Meta.intent(vr.Data.Amount, vr.Data.Reference, nil)
	if err != nil {
		return nil, fmt.Errorf("mono meta: %w", err)
	}
	// Mono settles via direct debit, never a stored card.
	intent.Card = nil

	return &ports.GatewayVerification{
		Succeeded: true,
		Amount:    vr.Data.Amount,
		Intent:    intent,
		Raw:       body,
	}, nil
}
