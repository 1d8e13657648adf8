package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDebits verifies the balance guard under concurrent load.
// 10 concurrent debits of 100,000 against a 500,000 balance: the atomic
// guarded debit must let exactly 5 through and the balance must end at 0.
func TestConcurrentDebits(t *testing.T) {
	app := newTestApp(t)
	userID, token := app.newUser(t, nil)
	app.fundWallet(t, userID, 500000, "ref-concurrent-fund")

	concurrency := 10
	var wg sync.WaitGroup
	var successCount atomic.Int64
	var insufficientCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"amount":100000,"transaction_hash":"concurrent-debit-%d"}`, idx)
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/wallets/debit",
				bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusPaymentRequired:
				insufficientCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent debits: %d succeeded, %d insufficient (out of %d)",
		successCount.Load(), insufficientCount.Load(), concurrency)

	assert.Equal(t, int64(5), successCount.Load(), "exactly 5 debits fit the balance")
	assert.Equal(t, int64(5), insufficientCount.Load())

	_, balBody := app.get(t, "/api/v1/wallets/balance", token)
	data := dataOf(t, balBody)
	assert.Equal(t, float64(0), data["balance"], "balance must be exactly spent, never negative")
}

// TestConcurrentWebhookRedelivery fires the same delivery 15 times in
// parallel. The dedup gate must let exactly one through; every request is
// still acknowledged with 200 so the gateway stops retrying.
func TestConcurrentWebhookRedelivery(t *testing.T) {
	app := newTestApp(t)
	userID, token := app.newUser(t, nil)

	concurrency := 15
	reference := "ref-storm"
	app.gateway.expectVerification(reference, &ports.GatewayVerification{
		Succeeded: true,
		Amount:    100000,
		Intent: domain.PaymentIntent{
			UserID:    userID,
			To:        domain.ToWallet,
			Amount:    100000,
			Hash:      "hash-" + reference,
			Reference: reference,
		},
	})

	var wg sync.WaitGroup
	var okCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := app.deliverWebhook(t, "evt-storm", "charge.success", reference, testPaystackSecret)
			defer resp.Body.Close()
			_, _ = io.ReadAll(resp.Body)
			if resp.StatusCode == http.StatusOK {
				okCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), okCount.Load(), "every delivery must be acknowledged")

	_, balBody := app.get(t, "/api/v1/wallets/balance", token)
	assert.Equal(t, float64(100000), dataOf(t, balBody)["balance"], "the contested event must credit exactly once")
}

// TestConcurrentInvestments_InventoryGuard races 10 investments of 50 tokens
// each against a listing holding only 100. The reservation guard must let
// exactly 2 through and inventory must end at 0.
func TestConcurrentInvestments_InventoryGuard(t *testing.T) {
	app := newTestApp(t)
	userID, token := app.newUser(t, nil)
	app.fundWallet(t, userID, 500000, "ref-inventory-fund")
	listingID := app.newListing(1000, 100)

	concurrency := 10
	var wg sync.WaitGroup
	var successCount atomic.Int64
	var soldOutCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(
				`{"listing_id":"%s","amount":50000,"duration_months":12,"transaction_hash":"race-invest-%d"}`,
				listingID, idx,
			)
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/portfolios",
				bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()

			var decoded map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&decoded)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				if decoded["error_code"] == "INV_002" {
					soldOutCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent investments: %d succeeded, %d sold out (out of %d)",
		successCount.Load(), soldOutCount.Load(), concurrency)

	assert.Equal(t, int64(2), successCount.Load(), "only 100 tokens were available")
	assert.Equal(t, int64(8), soldOutCount.Load())

	listing, err := app.listingRepo.GetByID(context.Background(), listingID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), listing.AvailableTokens, "inventory must never go negative")

	// Only the 2 winning investments were debited.
	_, balBody := app.get(t, "/api/v1/wallets/balance", token)
	assert.Equal(t, float64(400000), dataOf(t, balBody)["balance"])
}
