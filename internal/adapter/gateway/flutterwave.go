package gateway

import (
	"context"
	"crypto/subtle"
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

// FlutterwaveClient implements ports.GatewayClient for Flutterwave.
type FlutterwaveClient struct {
	secretKey string
	verifHash string
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
}

// NewFlutterwaveClient creates a new Flutterwave gateway client.
func NewFlutterwaveClient(cfg config.FlutterwaveConfig, timeout time.Duration, log zerolog.Logger) *FlutterwaveClient {
	return &FlutterwaveClient{
		secretKey: cfg.SecretKey,
		verifHash: cfg.VerifHash,
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: timeout},
		log:       log.With().Str("gateway", "flutterwave").Logger(),
	}
}

// Platform returns the gateway's platform identifier.
func (c *FlutterwaveClient) Platform() domain.Platform {
	return domain.PlatformFlutterwave
}

// VerifySignature checks the verif-hash header, which Flutterwave sends as
// the configured shared secret itself (plain compare, not an HMAC).
func (c *FlutterwaveClient) VerifySignature(_ []byte, header string) bool {
	if c.verifHash == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.verifHash), []byte(header)) == 1
}

type flutterwaveEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID     int64  `json:"id"`
		TxRef  string `json:"tx_ref"`
		Amount int64  `json:"amount"`
		IP     string `json:"ip"`
	} `json:"data"`
}

// ParseEvent extracts the canonical webhook request from a Flutterwave body.
func (c *FlutterwaveClient) ParseEvent(body []byte) (*ports.WebhookRequest, error) {
	var evt flutterwaveEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("parse flutterwave event: %w", err)
	}
	if evt.Data.ID == 0 || evt.Data.TxRef == "" {
		return nil, fmt.Errorf("flutterwave event missing id or tx_ref")
	}
	return &ports.WebhookRequest{
		Platform:   domain.PlatformFlutterwave,
		EventID:    strconv.FormatInt(evt.Data.ID, 10),
		Action:     evt.Event,
		Reference:  evt.Data.TxRef,
		RawPayload: body,
	}, nil
}

type flutterwaveCard struct {
	Token      string `json:"token"`
	Last4      string `json:"last_4digits"`
	Type       string `json:"type"`
	Expiry     string `json:"expiry"` // "MM/YY"
	First6     string `json:"first_6digits"`
	Issuer     string `json:"issuer"`
	CountryISO string `json:"country"`
}

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string           `json:"status"`
		TxRef  string           `json:"tx_ref"`
		Amount int64            `json:"amount"` // major units (naira)
		Meta   wireMetadata     `json:"meta"`
		Card   *flutterwaveCard `json:"card"`
	} `json:"data"`
}

// VerifyTransaction confirms a payment with Flutterwave's verification API.
// Flutterwave reports amounts in major units; the ledger runs on kobo.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, reference string) (*ports.GatewayVerification, error) {
	endpoint := c.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build flutterwave verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave verify call: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var vr flutterwaveVerifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode flutterwave verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || vr.Status != "success" || vr.Data.Status != "successful" {
		c.log.Warn().
			Str("tx_ref", reference).
			Int("http_status", resp.StatusCode).
			Str("gateway_status", vr.Data.Status).
			Msg("flutterwave verification did not succeed")
		return &ports.GatewayVerification{Succeeded: false, Raw: body}, nil
	}

	amountKobo := vr.Data.Amount * 100

	var card *domain.CardAuthorization
	if fc := vr.Data.Card; fc != nil && fc.Token != "" {
		expMonth, expYear := splitExpiry(fc.Expiry)
		card = &domain.CardAuthorization{
			Token:    fc.Token,
			Last4:    fc.Last4,
			CardType: fc.Type,
			ExpMonth: expMonth,
			ExpYear:  expYear,
		}
	}

	intent, err := vr.Data.Meta.intent(amountKobo, vr.Data.TxRef, card)
	if err != nil {
		return nil, fmt.Errorf("flutterwave meta: %w", err)
	}

	return &ports.GatewayVerification{
		Succeeded: true,
		Amount:    amountKobo,
		Intent:    intent,
		Raw:       body,
	}, nil
}

// splitExpiry breaks Flutterwave's "MM/YY" expiry into its two parts.
func splitExpiry(expiry string) (month, year string) {
	for i := 0; i < len(expiry); i++ {
		if expiry[i] == '/' {
			return expiry[:i], expiry[i+1:]
		}
	}
	return expiry, ""
}
