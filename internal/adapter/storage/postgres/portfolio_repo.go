package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PortfolioRepo implements ports.PortfolioRepository.
type PortfolioRepo struct {
	pool Pool
}

// NewPortfolioRepo creates a new PortfolioRepo.
func NewPortfolioRepo(pool Pool) *PortfolioRepo {
	return &PortfolioRepo{pool: pool}
}

// Create inserts a new portfolio within a database transaction.
func (r *PortfolioRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Portfolio) error {
	query := `INSERT INTO portfolios (id, user_id, listing_id, total_amount, tokens, occurrence,
		status, duration_months, next_charge_at, last_charge_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.UserID, p.ListingID, p.TotalAmount, p.Tokens, p.Occurrence,
		p.Status, p.DurationMonths, p.NextChargeAt, p.LastChargeAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert portfolio: %w", err)
	}
	return nil
}

// GetByID fetches a portfolio by UUID.
func (r *PortfolioRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `SELECT id, user_id, listing_id, total_amount, tokens, occurrence,
		status, duration_months, next_charge_at, last_charge_at, created_at, updated_at
		FROM portfolios WHERE id = $1`

	return r.scanPortfolio(r.pool.QueryRow(ctx, query, id))
}

// ApplyTopUp additively folds one funding tranche into the portfolio's
// cumulative counters. Charge dates only move when the caller passes them;
// a paused portfolio tops up without advancing its schedule.
func (r *PortfolioRepo) ApplyTopUp(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount, tokens int64, nextChargeAt, lastChargeAt *time.Time) error {
	query := `UPDATE portfolios SET
		total_amount = total_amount + $1,
		tokens = tokens + $2,
		next_charge_at = COALESCE($3, next_charge_at),
		last_charge_at = COALESCE($4, last_charge_at),
		updated_at = NOW()
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query, amount, tokens, nextChargeAt, lastChargeAt, id)
	if err != nil {
		return fmt.Errorf("apply portfolio topup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio not found: %s", id)
	}
	return nil
}

// UpdateStatus updates a portfolio's lifecycle status.
func (r *PortfolioRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PortfolioStatus) error {
	query := `UPDATE portfolios SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update portfolio status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio not found: %s", id)
	}
	return nil
}

// ListByUser fetches all portfolios belonging to a user, newest first.
func (r *PortfolioRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Portfolio, error) {
	query := `SELECT id, user_id, listing_id, total_amount, tokens, occurrence,
		status, duration_months, next_charge_at, last_charge_at, created_at, updated_at
		FROM portfolios WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		p := domain.Portfolio{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ListingID, &p.TotalAmount, &p.Tokens, &p.Occurrence,
			&p.Status, &p.DurationMonths, &p.NextChargeAt, &p.LastChargeAt,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan portfolio row: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio rows: %w", err)
	}
	return portfolios, nil
}

// scanPortfolio is a helper to scan a single row into a Portfolio.
func (r *PortfolioRepo) scanPortfolio(row pgx.Row) (*domain.Portfolio, error) {
	p := &domain.Portfolio{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.ListingID, &p.TotalAmount, &p.Tokens, &p.Occurrence,
		&p.Status, &p.DurationMonths, &p.NextChargeAt, &p.LastChargeAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan portfolio: %w", err)
	}
	return p, nil
}
