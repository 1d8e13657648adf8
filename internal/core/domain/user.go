package domain

import (
	"time"

	"github.com/google/uuid"
)

// User carries the referral relationship and lifetime counters the ledger
// maintains. Identity management itself lives elsewhere.
type User struct {
	ID                    uuid.UUID  `json:"id"`
	Email                 string     `json:"email"`
	ReferredBy            *uuid.UUID `json:"referred_by,omitempty"`
	HasInvested           bool       `json:"has_invested"`
	ReferralInvestedCount int64      `json:"referral_invested_count"`
	TotalFunded           int64      `json:"total_funded"`
	TotalInvested         int64      `json:"total_invested"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
