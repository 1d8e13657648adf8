package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invest-ledger/config"
	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlutterwaveClient_VerifySignature(t *testing.T) {
	c := NewFlutterwaveClient(config.FlutterwaveConfig{VerifHash: "flw-hash-1"}, time.Second, zerolog.Nop())

	assert.True(t, c.VerifySignature(nil, "flw-hash-1"))
	assert.False(t, c.VerifySignature(nil, "flw-hash-2"))
	assert.False(t, c.VerifySignature(nil, ""))
}

func TestFlutterwaveClient_VerifySignature_Unconfigured(t *testing.T) {
	// An empty configured secret must never match, even an empty header.
	c := NewFlutterwaveClient(config.FlutterwaveConfig{}, time.Second, zerolog.Nop())
	assert.False(t, c.VerifySignature(nil, ""))
}

func TestFlutterwaveClient_ParseEvent(t *testing.T) {
	c := NewFlutterwaveClient(config.FlutterwaveConfig{}, time.Second, zerolog.Nop())

	req, err := c.ParseEvent([]byte(`{"event":"charge.completed","data":{"id":285959,"tx_ref":"FLW-REF-1","amount":5000,"ip":"1.2.3.4"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformFlutterwave, req.Platform)
	assert.Equal(t, "285959", req.EventID)
	assert.Equal(t, "charge.completed", req.Action)
	assert.Equal(t, "FLW-REF-1", req.Reference)
}

func TestFlutterwaveClient_VerifyTransaction_ConvertsToKobo(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/verify_by_reference", r.URL.Path)
		assert.Equal(t, "FLW-REF-1", r.URL.Query().Get("tx_ref"))
		fmt.Fprintf(w, `{
			"status": "success",
			"data": {
				"status": "successful",
				"tx_ref": "FLW-REF-1",
				"amount": 5000,
				"meta": {
					"user_id": %q,
					"transaction_to": "WALLET",
					"transaction_hash": "hash-flw-1"
				},
				"card": {
					"token": "flw-tok-1",
					"last_4digits": "9018",
					"type": "MASTERCARD",
					"expiry": "09/32"
				}
			}
		}`, userID)
	}))
	defer srv.Close()

	c := NewFlutterwaveClient(config.FlutterwaveConfig{SecretKey: "FLWSECK", BaseURL: srv.URL}, time.Second, zerolog.Nop())

	v, err := c.VerifyTransaction(context.Background(), "FLW-REF-1")
	require.NoError(t, err)
	assert.True(t, v.Succeeded)
	// 5000 naira on the wire is 500000 kobo in the ledger.
	assert.Equal(t, int64(500000), v.Amount)
	assert.Equal(t, int64(500000), v.Intent.Amount)
	assert.Equal(t, domain.ToWallet, v.Intent.To)
	require.NotNil(t, v.Intent.Card)
	assert.Equal(t, "09", v.Intent.Card.ExpMonth)
	assert.Equal(t, "32", v.Intent.Card.ExpYear)
}

func TestFlutterwaveClient_VerifyTransaction_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success", "data": {"status": "failed", "tx_ref": "FLW-REF-2", "amount": 0}}`)
	}))
	defer srv.Close()

	c := NewFlutterwaveClient(config.FlutterwaveConfig{BaseURL: srv.URL}, time.Second, zerolog.Nop())

	v, err := c.VerifyTransaction(context.Background(), "FLW-REF-2")
	require.NoError(t, err)
	assert.False(t, v.Succeeded)
}
