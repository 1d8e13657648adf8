package postgres

import (
	"context"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvestmentRepo implements ports.InvestmentRepository.
type InvestmentRepo struct {
	pool Pool
}

// NewInvestmentRepo creates a new InvestmentRepo.
func NewInvestmentRepo(pool Pool) *InvestmentRepo {
	return &InvestmentRepo{pool: pool}
}

// Create inserts a new investment tranche within a database transaction.
func (r *InvestmentRepo) Create(ctx context.Context, tx pgx.Tx, inv *domain.Investment) error {
	query := `INSERT INTO investments (id, portfolio_id, user_id, amount, tokens,
		start_date, end_date, auto_reinvest, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		inv.ID, inv.PortfolioID, inv.UserID, inv.Amount, inv.Tokens,
		inv.StartDate, inv.EndDate, inv.AutoReinvest, inv.TransactionID, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

// AttachTransaction links the settling ledger transaction to its tranche.
func (r *InvestmentRepo) AttachTransaction(ctx context.Context, tx pgx.Tx, investmentID, transactionID uuid.UUID) error {
	query := `UPDATE investments SET transaction_id = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, transactionID, investmentID)
	if err != nil {
		return fmt.Errorf("attach investment transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("investment not found: %s", investmentID)
	}
	return nil
}
