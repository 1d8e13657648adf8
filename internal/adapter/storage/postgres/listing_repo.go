package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListingRepo implements ports.ListingRepository.
type ListingRepo struct {
	pool Pool
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(pool Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

// GetByID fetches a listing by UUID.
func (r *ListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT id, title, token_rate, available_tokens, total_investments_made,
		total_investment_amount, total_tokens_bought, created_at, updated_at
		FROM listings WHERE id = $1`

	l := &domain.Listing{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Title, &l.TokenRate, &l.AvailableTokens, &l.TotalInvestmentsMade,
		&l.TotalInvestmentAmount, &l.TotalTokensBought, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing by id: %w", err)
	}
	return l, nil
}

// Reserve atomically takes tokens out of the listing's inventory. The
// available_tokens >= tokens guard in the UPDATE makes overselling impossible
// regardless of how many investors race; the loser sees zero rows affected.
func (r *ListingRepo) Reserve(ctx context.Context, tx pgx.Tx, listingID, investorID uuid.UUID, tokens, amount int64) (bool, error) {
	query := `UPDATE listings SET
		available_tokens = available_tokens - $1,
		total_investments_made = total_investments_made + 1,
		total_investment_amount = total_investment_amount + $2,
		total_tokens_bought = total_tokens_bought + $1,
		updated_at = NOW()
		WHERE id = $3 AND available_tokens >= $1`

	tag, err := tx.Exec(ctx, query, tokens, amount, listingID)
	if err != nil {
		return false, fmt.Errorf("reserve listing tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	investorQuery := `INSERT INTO listing_investors (listing_id, user_id, created_at)
		VALUES ($1, $2, NOW()) ON CONFLICT (listing_id, user_id) DO NOTHING`

	if _, err := tx.Exec(ctx, investorQuery, listingID, investorID); err != nil {
		return false, fmt.Errorf("record listing investor: %w", err)
	}
	return true, nil
}
