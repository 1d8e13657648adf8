package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, account_id, amount, direction, medium, gateway,
		status, kind, balance_before, balance_after, portfolio_id, investment_id,
		transaction_hash, payment_reference, gateway_data, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.AccountID, t.Amount, t.Direction, t.Medium, t.Gateway,
		t.Status, t.Kind, t.BalanceBefore, t.BalanceAfter, t.PortfolioID, t.InvestmentID,
		t.Hash, t.Reference, t.GatewayData, t.CreatedAt, t.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, user_id, account_id, amount, direction, medium, gateway,
		status, kind, balance_before, balance_after, portfolio_id, investment_id,
		transaction_hash, payment_reference, gateway_data, created_at, processed_at
		FROM transactions WHERE id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// ExistsByHash checks whether a non-failed transaction already carries the
// hash. Failed attempts are excluded so the same logical movement can be
// retried after a gateway failure.
func (r *TransactionRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE transaction_hash = $1 AND status != 'FAILED')`

	var exists bool
	err := r.pool.QueryRow(ctx, query, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction hash exists: %w", err)
	}
	return exists, nil
}

// ExistsByReference checks whether any transaction carries the gateway
// payment reference.
func (r *TransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE payment_reference = $1 AND status != 'FAILED')`

	var exists bool
	err := r.pool.QueryRow(ctx, query, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction reference exists: %w", err)
	}
	return exists, nil
}

// List fetches a user's transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, *params.Kind)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, user_id, account_id, amount, direction, medium, gateway,
		status, kind, balance_before, balance_after, portfolio_id, investment_id,
		transaction_hash, payment_reference, gateway_data, created_at, processed_at
		FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.AccountID, &t.Amount, &t.Direction, &t.Medium, &t.Gateway,
			&t.Status, &t.Kind, &t.BalanceBefore, &t.BalanceAfter, &t.PortfolioID, &t.InvestmentID,
			&t.Hash, &t.Reference, &t.GatewayData, &t.CreatedAt, &t.ProcessedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.Amount, &t.Direction, &t.Medium, &t.Gateway,
		&t.Status, &t.Kind, &t.BalanceBefore, &t.BalanceAfter, &t.PortfolioID, &t.InvestmentID,
		&t.Hash, &t.Reference, &t.GatewayData, &t.CreatedAt, &t.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
