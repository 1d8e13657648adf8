package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card stores a tokenized card authorization returned by a gateway after a
// successful charge (the ADD_CARD webhook sub-flow).
type Card struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Gateway   Gateway   `json:"gateway"`
	AuthToken string    `json:"-"` // gateway authorization code, never exposed
	Last4     string    `json:"last4"`
	CardType  string    `json:"card_type"`
	ExpMonth  string    `json:"exp_month"`
	ExpYear   string    `json:"exp_year"`
	CreatedAt time.Time `json:"created_at"`
}
