package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, email, referred_by, has_invested, referral_invested_count,
		total_funded, total_invested, created_at, updated_at
		FROM users WHERE id = $1`

	u := &domain.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.ReferredBy, &u.HasInvested, &u.ReferralInvestedCount,
		&u.TotalFunded, &u.TotalInvested, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// MarkFirstInvestment flips has_invested, but only if it was still false.
// The conditional UPDATE is the exactly-once gate for the referral bonus:
// of two racing first investments only one sees a row affected.
func (r *UserRepo) MarkFirstInvestment(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error) {
	query := `UPDATE users SET has_invested = TRUE, updated_at = NOW()
		WHERE id = $1 AND has_invested = FALSE`

	tag, err := tx.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("mark first investment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementReferralInvested bumps the referrer's invested-referrals counter.
func (r *UserRepo) IncrementReferralInvested(ctx context.Context, tx pgx.Tx, referrerID uuid.UUID) error {
	query := `UPDATE users SET referral_invested_count = referral_invested_count + 1, updated_at = NOW()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, referrerID)
	if err != nil {
		return fmt.Errorf("increment referral invested count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", referrerID)
	}
	return nil
}

// AddTotalFunded adds to the user's lifetime funding counter.
func (r *UserRepo) AddTotalFunded(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error {
	query := `UPDATE users SET total_funded = total_funded + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("add total funded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// AddTotalInvested adds to the user's lifetime investment counter.
func (r *UserRepo) AddTotalInvested(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error {
	query := `UPDATE users SET total_invested = total_invested + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("add total invested: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}
