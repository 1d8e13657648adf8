package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"invest-ledger/config"
	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// PaystackClient implements ports.GatewayClient for Paystack.
type PaystackClient struct {
	secretKey string
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
}

// NewPaystackClient creates a new Paystack gateway client.
func NewPaystackClient(cfg config.PaystackConfig, timeout time.Duration, log zerolog.Logger) *PaystackClient {
	return &PaystackClient{
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: timeout},
		log:       log.With().Str("gateway", "paystack").Logger(),
	}
}

// Platform returns the gateway's platform identifier.
func (c *PaystackClient) Platform() domain.Platform {
	return domain.PlatformPaystack
}

// VerifySignature checks x-paystack-signature: HMAC-SHA512 of the raw body
// keyed with the account secret, hex encoded.
func (c *PaystackClient) VerifySignature(body []byte, header string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// ParseEvent extracts the canonical webhook request from a Paystack body.
func (c *PaystackClient) ParseEvent(body []byte) (*ports.WebhookRequest, error) {
	var evt paystackEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("parse paystack event: %w", err)
	}
	if evt.Data.ID == 0 || evt.Data.Reference == "" {
		return nil, fmt.Errorf("paystack event missing id or reference")
	}
	return &ports.WebhookRequest{
		Platform:   domain.PlatformPaystack,
		EventID:    strconv.FormatInt(evt.Data.ID, 10),
		Action:     evt.Event,
		Reference:  evt.Data.Reference,
		RawPayload: body,
	}, nil
}

type paystackAuthorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Last4             string `json:"last4"`
	CardType          string `json:"card_type"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status        string                 `json:"status"`
		Reference     string                 `json:"reference"`
		Amount        int64                  `json:"amount"`
		Metadata      wireMetadata           `json:"metadata"`
		Authorization *paystackAuthorization `json:"authorization"`
	} `json:"data"`
}

// VerifyTransaction confirms a payment with Paystack's verification API.
// Amounts are already in kobo on the wire.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*ports.GatewayVerification, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build paystack verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify call: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var vr paystackVerifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode paystack verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !vr.Status || vr.Data.Status != "success" {
		c.log.Warn().
			Str("reference", reference).
			Int("http_status", resp.StatusCode).
			Str("gateway_status", vr.Data.Status).
			Msg("paystack verification did not succeed")
		return &ports.GatewayVerification{Succeeded: false, Raw: body}, nil
	}

	var card *domain.CardAuthorization
	if a := vr.Data.Authorization; a != nil && a.AuthorizationCode != "" {
		card = &domain.CardAuthorization{
			Token:    a.AuthorizationCode,
			Last4:    a.Last4,
			CardType: a.CardType,
			ExpMonth: a.ExpMonth,
			ExpYear:  a.ExpYear,
		}
	}

	intent, err := vr.Data.Metadata.intent(vr.Data.Amount, vr.Data.Reference, card)
	if err != nil {
		return nil, fmt.Errorf("paystack metadata: %w", err)
	}

	return &ports.GatewayVerification{
		Succeeded: true,
		Amount:    vr.Data.Amount,
		Intent:    intent,
		Raw:       body,
	}, nil
}
