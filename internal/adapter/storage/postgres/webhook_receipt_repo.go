package postgres

import (
	"context"
	"fmt"

	"invest-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WebhookReceiptRepo implements ports.WebhookReceiptRepository.
type WebhookReceiptRepo struct {
	pool Pool
}

// NewWebhookReceiptRepo creates a new WebhookReceiptRepo.
func NewWebhookReceiptRepo(pool Pool) *WebhookReceiptRepo {
	return &WebhookReceiptRepo{pool: pool}
}

// Create records a processed webhook delivery within a database transaction.
// (platform, event_id) is unique; a concurrent redelivery loses the race at
// commit and is rolled back with everything else in its unit of work.
func (r *WebhookReceiptRepo) Create(ctx context.Context, tx pgx.Tx, receipt *domain.WebhookReceipt) error {
	query := `INSERT INTO webhook_receipts (id, platform, action, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		receipt.ID, receipt.Platform, receipt.Action, receipt.EventID,
		receipt.Payload, receipt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert webhook receipt: %w", err)
	}
	return nil
}

// Exists checks whether the delivery has already been processed.
func (r *WebhookReceiptRepo) Exists(ctx context.Context, platform domain.Platform, eventID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM webhook_receipts WHERE platform = $1 AND event_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, platform, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check webhook receipt exists: %w", err)
	}
	return exists, nil
}
