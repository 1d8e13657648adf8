package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account within a database transaction.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	query := `INSERT INTO accounts (id, user_id, kind, balance, total_credited, total_debited,
		credit_count, debit_count, last_credit_amount, last_debit_amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		a.ID, a.UserID, a.Kind, a.Balance, a.TotalCredited, a.TotalDebited,
		a.CreditCount, a.DebitCount, a.LastCreditAmount, a.LastDebitAmount,
		a.Currency, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByUser fetches a user's account of the given kind.
func (r *AccountRepo) GetByUser(ctx context.Context, userID uuid.UUID, kind domain.AccountKind) (*domain.Account, error) {
	query := `SELECT id, user_id, kind, balance, total_credited, total_debited,
		credit_count, debit_count, last_credit_amount, last_debit_amount,
		last_credit_at, last_debit_at, currency, created_at, updated_at
		FROM accounts WHERE user_id = $1 AND kind = $2`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, userID, kind).Scan(
		&a.ID, &a.UserID, &a.Kind, &a.Balance, &a.TotalCredited, &a.TotalDebited,
		&a.CreditCount, &a.DebitCount, &a.LastCreditAmount, &a.LastDebitAmount,
		&a.LastCreditAt, &a.LastDebitAt, &a.Currency, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by user: %w", err)
	}
	return a, nil
}

// Credit atomically adds amount to the balance and running totals. The
// snapshot's before/after values come from the same statement's RETURNING
// clause, so no separate read can interleave with a concurrent writer.
func (r *AccountRepo) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error) {
	query := `UPDATE accounts SET
		balance = balance + $1,
		total_credited = total_credited + $1,
		credit_count = credit_count + 1,
		last_credit_amount = $1,
		last_credit_at = NOW(),
		updated_at = NOW()
		WHERE id = $2
		RETURNING balance - $1, balance`

	snap := &domain.BalanceSnapshot{}
	err := tx.QueryRow(ctx, query, amount, accountID).Scan(&snap.Before, &snap.After)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("credit account: %w", err)
	}
	return snap, nil
}

// Debit atomically subtracts amount, guarded so the balance never goes
// negative. Returns (nil, nil) when the guard fails.
func (r *AccountRepo) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error) {
	query := `UPDATE accounts SET
		balance = balance - $1,
		total_debited = total_debited + $1,
		debit_count = debit_count + 1,
		last_debit_amount = $1,
		last_debit_at = NOW(),
		updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance + $1, balance`

	snap := &domain.BalanceSnapshot{}
	err := tx.QueryRow(ctx, query, amount, accountID).Scan(&snap.Before, &snap.After)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("debit account: %w", err)
	}
	return snap, nil
}
