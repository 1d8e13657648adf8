package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == account.UserID && a.Kind == account.Kind {
			return domain.ErrDuplicateKey
		}
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByUser(ctx context.Context, userID uuid.UUID, kind domain.AccountKind) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == userID && a.Kind == kind {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account not found")
	}
	before := a.Balance
	a.Balance += amount
	a.TotalCredited += amount
	a.CreditCount++
	a.LastCreditAmount = amount
	now := time.Now().UTC()
	a.LastCreditAt = &now
	return &domain.BalanceSnapshot{Before: before, After: a.Balance}, nil
}

// Debit holds the repo mutex across the guard check and the mutation, which
// mirrors the atomicity of the single-statement SQL UPDATE.
func (r *inMemoryAccountRepo) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int64) (*domain.BalanceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account not found")
	}
	if a.Balance < amount {
		return nil, nil
	}
	before := a.Balance
	a.Balance -= amount
	a.TotalDebited += amount
	a.DebitCount++
	a.LastDebitAmount = amount
	now := time.Now().UTC()
	a.LastDebitAt = &now
	return &domain.BalanceSnapshot{Before: before, After: a.Balance}, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.Hash == hash && t.Status != domain.TransactionStatusFailed {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryTransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.UserID != params.UserID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Kind != nil && t.Kind != *params.Kind {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory TransactionRef Repo ---

type inMemoryTransactionRefRepo struct {
	mu   sync.Mutex
	refs map[string]*domain.TransactionRef
}

func newInMemoryTransactionRefRepo() *inMemoryTransactionRefRepo {
	return &inMemoryTransactionRefRepo{refs: make(map[string]*domain.TransactionRef)}
}

func (r *inMemoryTransactionRefRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.TransactionRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.refs[ref.Hash]; ok {
		return domain.ErrDuplicateKey
	}
	cp := *ref
	r.refs[ref.Hash] = &cp
	return nil
}

func (r *inMemoryTransactionRefRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.refs[hash]
	return ok, nil
}

// --- In-Memory WebhookReceipt Repo ---

type inMemoryWebhookReceiptRepo struct {
	mu       sync.Mutex
	receipts map[string]*domain.WebhookReceipt
}

func newInMemoryWebhookReceiptRepo() *inMemoryWebhookReceiptRepo {
	return &inMemoryWebhookReceiptRepo{receipts: make(map[string]*domain.WebhookReceipt)}
}

func receiptKey(platform domain.Platform, eventID string) string {
	return string(platform) + "|" + eventID
}

func (r *inMemoryWebhookReceiptRepo) Create(ctx context.Context, tx pgx.Tx, receipt *domain.WebhookReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := receiptKey(receipt.Platform, receipt.EventID)
	if _, ok := r.receipts[key]; ok {
		return domain.ErrDuplicateKey
	}
	cp := *receipt
	r.receipts[key] = &cp
	return nil
}

func (r *inMemoryWebhookReceiptRepo) Exists(ctx context.Context, platform domain.Platform, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.receipts[receiptKey(platform, eventID)]
	return ok, nil
}

// --- In-Memory Listing Repo ---

type inMemoryListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*domain.Listing
}

func newInMemoryListingRepo() *inMemoryListingRepo {
	return &inMemoryListingRepo{listings: make(map[uuid.UUID]*domain.Listing)}
}

func (r *inMemoryListingRepo) put(l *domain.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings[l.ID] = &cp
}

func (r *inMemoryListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// Reserve holds the mutex across the inventory guard and the decrement, same
// atomicity as the guarded SQL UPDATE.
func (r *inMemoryListingRepo) Reserve(ctx context.Context, tx pgx.Tx, listingID, investorID uuid.UUID, tokens, amount int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return false, nil
	}
	if l.AvailableTokens < tokens {
		return false, nil
	}
	l.AvailableTokens -= tokens
	l.TotalInvestmentsMade++
	l.TotalInvestmentAmount += amount
	l.TotalTokensBought += tokens
	return true, nil
}

// --- In-Memory Portfolio Repo ---

type inMemoryPortfolioRepo struct {
	mu         sync.Mutex
	portfolios map[uuid.UUID]*domain.Portfolio
}

func newInMemoryPortfolioRepo() *inMemoryPortfolioRepo {
	return &inMemoryPortfolioRepo{portfolios: make(map[uuid.UUID]*domain.Portfolio)}
}

func (r *inMemoryPortfolioRepo) Create(ctx context.Context, tx pgx.Tx, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *portfolio
	r.portfolios[portfolio.ID] = &cp
	return nil
}

func (r *inMemoryPortfolioRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPortfolioRepo) ApplyTopUp(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount, tokens int64, nextChargeAt, lastChargeAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[id]
	if !ok {
		return fmt.Errorf("portfolio not found")
	}
	p.TotalAmount += amount
	p.Tokens += tokens
	if nextChargeAt != nil {
		p.NextChargeAt = nextChargeAt
	}
	if lastChargeAt != nil {
		p.LastChargeAt = lastChargeAt
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryPortfolioRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PortfolioStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[id]
	if !ok {
		return fmt.Errorf("portfolio not found")
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryPortfolioRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Portfolio
	for _, p := range r.portfolios {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, nil
}

// --- In-Memory Investment Repo ---

type inMemoryInvestmentRepo struct {
	mu          sync.Mutex
	investments map[uuid.UUID]*domain.Investment
}

func newInMemoryInvestmentRepo() *inMemoryInvestmentRepo {
	return &inMemoryInvestmentRepo{investments: make(map[uuid.UUID]*domain.Investment)}
}

func (r *inMemoryInvestmentRepo) Create(ctx context.Context, tx pgx.Tx, investment *domain.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *investment
	r.investments[investment.ID] = &cp
	return nil
}

func (r *inMemoryInvestmentRepo) AttachTransaction(ctx context.Context, tx pgx.Tx, investmentID, transactionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.investments[investmentID]
	if !ok {
		return fmt.Errorf("investment not found")
	}
	inv.TransactionID = &transactionID
	return nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) MarkFirstInvestment(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, fmt.Errorf("user not found")
	}
	if u.HasInvested {
		return false, nil
	}
	u.HasInvested = true
	return true, nil
}

func (r *inMemoryUserRepo) IncrementReferralInvested(ctx context.Context, tx pgx.Tx, referrerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[referrerID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.ReferralInvestedCount++
	return nil
}

func (r *inMemoryUserRepo) AddTotalFunded(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.TotalFunded += amount
	return nil
}

func (r *inMemoryUserRepo) AddTotalInvested(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.TotalInvested += amount
	return nil
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[uuid.UUID]*domain.Card)}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, tx pgx.Tx, card *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cards {
		if c.UserID == card.UserID && c.Gateway == card.Gateway && c.AuthToken == card.AuthToken {
			return domain.ErrDuplicateKey
		}
	}
	cp := *card
	r.cards[card.ID] = &cp
	return nil
}

func (r *inMemoryCardRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cards)
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
