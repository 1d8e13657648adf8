package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRecorder creates exactly one Transaction and one TransactionRef
// per ledger mutation, sharing the caller's transaction hash. The ref's
// unique hash column is the last line of defense against a concurrent
// duplicate of the same logical movement.
type TransactionRecorder struct {
	txRepo  ports.TransactionRepository
	refRepo ports.TransactionRefRepository
}

// NewTransactionRecorder creates a new TransactionRecorder.
func NewTransactionRecorder(txRepo ports.TransactionRepository, refRepo ports.TransactionRefRepository) *TransactionRecorder {
	return &TransactionRecorder{txRepo: txRepo, refRepo: refRepo}
}

// Record persists the transaction and its idempotency ref in the caller's
// unit of work. It fills ID and CreatedAt when unset and never mutates
// balances itself.
func (r *TransactionRecorder) Record(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	ref := &domain.TransactionRef{
		ID:        uuid.New(),
		UserID:    txn.UserID,
		Amount:    txn.Amount,
		Hash:      txn.Hash,
		CreatedAt: txn.CreatedAt,
	}
	if err := r.refRepo.Create(ctx, dbTx, ref); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("record transaction ref: %w", err)
	}

	if err := r.txRepo.Create(ctx, dbTx, txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}
