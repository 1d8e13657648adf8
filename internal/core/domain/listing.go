package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopspring/decimal"
)

// Listing is an investable product with a finite token inventory.
// TokenRate is the price of one token in minor units.
type Listing struct {
	ID                    uuid.UUID `json:"id"`
	Title                 string    `json:"title"`
	TokenRate             int64     `json:"token_rate"`
	AvailableTokens       int64     `json:"available_tokens"`
	TotalInvestmentsMade  int64     `json:"total_investments_made"`
	TotalInvestmentAmount int64     `json:"total_investment_amount"`
	TotalTokensBought     int64     `json:"total_tokens_bought"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TokensFor returns how many whole tokens the given amount buys at this
// listing's rate.
func (l *Listing) TokensFor(amount int64) int64 {
	if l.TokenRate <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(l.TokenRate)).
		Floor().
		IntPart()
}
