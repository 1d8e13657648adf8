// Package gateway holds the Paystack, Flutterwave and Mono client adapters.
// Each one owns its gateway's wire shapes and maps them into the canonical
// domain.PaymentIntent; gateway quirks never leak past this package.
package gateway

import (
	"fmt"
	"io"
	"net/http"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// wireMetadata is the metadata object the gateways echo back verbatim from
// charge initialization. All three gateways carry the same shape (Flutterwave
// calls the field "meta").
type wireMetadata struct {
	UserID        string `json:"user_id"`
	TransactionTo string `json:"transaction_to"`
	Hash          string `json:"transaction_hash"`
	ListingID     string `json:"listing_id,omitempty"`
	PortfolioID   string `json:"portfolio_id,omitempty"`
	DurationMonth int    `json:"duration_month,omitempty"`
	Occurrence    string `json:"occurrence,omitempty"`
	AutoReinvest  bool   `json:"auto_reinvest,omitempty"`
}

// intent maps verified gateway metadata into the canonical payment intent.
func (m wireMetadata) intent(amount int64, reference string, card *domain.CardAuthorization) (domain.PaymentIntent, error) {
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("parse metadata user_id: %w", err)
	}

	to, err := domain.ParseTransactionTo(m.TransactionTo)
	if err != nil {
		return domain.PaymentIntent{}, err
	}

	if m.Hash == "" {
		return domain.PaymentIntent{}, fmt.Errorf("metadata transaction_hash missing")
	}

	intent := domain.PaymentIntent{
		UserID:        userID,
		To:            to,
		Amount:        amount,
		Hash:          m.Hash,
		Reference:     reference,
		DurationMonth: m.DurationMonth,
		Occurrence:    domain.OccurrenceOneTime,
		AutoReinvest:  m.AutoReinvest,
		Card:          card,
	}
	if m.Occurrence != "" {
		intent.Occurrence = domain.Occurrence(m.Occurrence)
	}

	if m.ListingID != "" {
		id, err := uuid.Parse(m.ListingID)
		if err != nil {
			return domain.PaymentIntent{}, fmt.Errorf("parse metadata listing_id: %w", err)
		}
		intent.ListingID = id
	}
	if m.PortfolioID != "" {
		id, err := uuid.Parse(m.PortfolioID)
		if err != nil {
			return domain.PaymentIntent{}, fmt.Errorf("parse metadata portfolio_id: %w", err)
		}
		intent.PortfolioID = id
	}

	return intent, nil
}

// readBody drains a verification response, bounded so a misbehaving gateway
// cannot exhaust memory.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read verify response: %w", err)
	}
	return body, nil
}
