package domain

import (
	"time"

	"github.com/google/uuid"
)

// Occurrence distinguishes a one-off commitment from a recurring one.
type Occurrence string

const (
	OccurrenceOneTime   Occurrence = "ONE_TIME"
	OccurrenceRecurring Occurrence = "RECURRING"
)

// PortfolioStatus is the lifecycle state of an investment commitment.
// ACTIVE (newly created) -> PAUSE -> RESUME -> COMPLETE. While PAUSE, a
// top-up's recurring-charge-date advance is suppressed.
type PortfolioStatus string

const (
	PortfolioStatusActive   PortfolioStatus = "ACTIVE"
	PortfolioStatusPause    PortfolioStatus = "PAUSE"
	PortfolioStatusResume   PortfolioStatus = "RESUME"
	PortfolioStatusComplete PortfolioStatus = "COMPLETE"
)

// CanPause reports whether a pause transition is allowed from s.
func (s PortfolioStatus) CanPause() bool {
	return s == PortfolioStatusActive || s == PortfolioStatusResume
}

// CanResume reports whether a resume transition is allowed from s.
func (s PortfolioStatus) CanResume() bool {
	return s == PortfolioStatusPause
}

// Portfolio is a recurring-or-one-time investment commitment against a
// listing. TotalAmount accumulates across the initial funding and top-ups;
// the sum of its tranche amounts always equals it.
type Portfolio struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	ListingID      uuid.UUID       `json:"listing_id"`
	TotalAmount    int64           `json:"total_amount"`
	Tokens         int64           `json:"tokens"`
	Occurrence     Occurrence      `json:"occurrence"`
	Status         PortfolioStatus `json:"status"`
	DurationMonths int             `json:"duration_months"`
	NextChargeAt   *time.Time      `json:"next_charge_at,omitempty"`
	LastChargeAt   *time.Time      `json:"last_charge_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Investment is one funded tranche against a portfolio. It is created once
// per funding event and updated only to attach its settling transaction.
type Investment struct {
	ID            uuid.UUID  `json:"id"`
	PortfolioID   uuid.UUID  `json:"portfolio_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        int64      `json:"amount"`
	Tokens        int64      `json:"tokens"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	AutoReinvest  bool       `json:"auto_reinvest"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
