package postgres

import (
	"context"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransactionRefRepo implements ports.TransactionRefRepository.
type TransactionRefRepo struct {
	pool Pool
}

// NewTransactionRefRepo creates a new TransactionRefRepo.
func NewTransactionRefRepo(pool Pool) *TransactionRefRepo {
	return &TransactionRefRepo{pool: pool}
}

// Create inserts the idempotency record within a database transaction.
// The transaction_hash column is unique, so a concurrent duplicate of the
// same logical movement fails here and rolls its whole unit of work back.
func (r *TransactionRefRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.TransactionRef) error {
	query := `INSERT INTO transaction_refs (id, user_id, amount, transaction_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, ref.ID, ref.UserID, ref.Amount, ref.Hash, ref.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction ref: %w", err)
	}
	return nil
}

// ExistsByHash checks whether the hash has already been recorded.
func (r *TransactionRefRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transaction_refs WHERE transaction_hash = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction ref exists: %w", err)
	}
	return exists, nil
}
