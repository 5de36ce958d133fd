package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// Compile-time interface check
var _ interfaces.TransactionStore = (*TransactionStore)(nil)

// TransactionStore persists the append-only fund-transfer journal and the
// per-account ledger entries in transactions_db.
type TransactionStore struct {
	pool   *pgxpool.Pool
	logger *common.Logger
}

// NewTransactionStore wraps an open pool.
func NewTransactionStore(pool *pgxpool.Pool, logger *common.Logger) *TransactionStore {
	return &TransactionStore{pool: pool, logger: logger}
}

// Close releases the pool.
func (s *TransactionStore) Close() error {
	s.pool.Close()
	return nil
}

// utcDayBounds returns [start, end) of the UTC calendar day containing at.
func utcDayBounds(at time.Time) (time.Time, time.Time) {
	u := at.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// dailyUsageTx reads the day's WITHDRAW+TRANSFER consumption for an account,
// inside whatever transaction (or pool) q represents.
func dailyUsageTx(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, account int64, at time.Time) (models.DailyUsage, error) {
	start, end := utcDayBounds(at)
	var usage models.DailyUsage
	var cents int64
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM transaction_logging
		WHERE account_number = $1 AND kind IN ('WITHDRAW', 'TRANSFER')
		  AND at >= $2 AND at < $3`,
		account, start, end).Scan(&cents, &usage.Count)
	if err != nil {
		return models.DailyUsage{}, storageFailure("daily-usage", err)
	}
	usage.Amount = models.Money(cents)
	return usage, nil
}

// DailyUsage returns the account's consumption of today's cap.
func (s *TransactionStore) DailyUsage(ctx context.Context, account int64, at time.Time) (models.DailyUsage, error) {
	return dailyUsageTx(ctx, s.pool, account, at)
}

func (s *TransactionStore) insertTransfer(ctx context.Context, tx pgx.Tx, ft *models.FundTransfer) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO fund_transfers (id, from_account, to_account, amount_cents, mode, at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ft.ID, ft.FromAccount, ft.ToAccount, ft.Amount.Cents(), ft.Mode, ft.At)
	if err != nil {
		return storageFailure("journal-insert", err)
	}
	return nil
}

func (s *TransactionStore) insertEntry(ctx context.Context, tx pgx.Tx, e *models.TransactionEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transaction_logging (id, account_number, amount_cents, kind, at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.AccountNumber, e.Amount.Cents(), e.Kind, e.At)
	if err != nil {
		return storageFailure("entry-insert", err)
	}
	return nil
}

// RecordDeposit appends the journal row and the single DEPOSIT entry.
// Deposits never consume daily limits, so no admission check runs.
func (s *TransactionStore) RecordDeposit(ctx context.Context, account int64, amount models.Money, at time.Time) (*models.FundTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("record-deposit", err)
	}
	defer tx.Rollback(ctx)

	ft := &models.FundTransfer{
		ID:          uuid.New().String(),
		FromAccount: models.SentinelAccount,
		ToAccount:   account,
		Amount:      amount,
		Mode:        models.ModeNEFT,
		At:          at,
	}
	if err := s.insertTransfer(ctx, tx, ft); err != nil {
		return nil, err
	}
	entry := &models.TransactionEntry{
		ID:            uuid.New().String(),
		AccountNumber: account,
		Amount:        amount,
		Kind:          models.EntryDeposit,
		At:            at,
	}
	if err := s.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("record-deposit", err)
	}
	return ft, nil
}

// RecordWithdrawal re-checks admission inside the transaction, then appends
// the journal row and the single WITHDRAW entry. A concurrent writer that
// pushed usage past the cap between the pre-check and this transaction rolls
// the whole insert back.
func (s *TransactionStore) RecordWithdrawal(ctx context.Context, account int64, amount models.Money, at time.Time, limit models.PrivilegeLimit) (*models.FundTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("record-withdrawal", err)
	}
	defer tx.Rollback(ctx)

	usage, err := dailyUsageTx(ctx, tx, account, at)
	if err != nil {
		return nil, err
	}
	if err := limit.Admit(usage, amount); err != nil {
		return nil, err
	}

	ft := &models.FundTransfer{
		ID:          uuid.New().String(),
		FromAccount: account,
		ToAccount:   models.SentinelAccount,
		Amount:      amount,
		Mode:        models.ModeNEFT,
		At:          at,
	}
	if err := s.insertTransfer(ctx, tx, ft); err != nil {
		return nil, err
	}
	entry := &models.TransactionEntry{
		ID:            uuid.New().String(),
		AccountNumber: account,
		Amount:        amount,
		Kind:          models.EntryWithdraw,
		At:            at,
	}
	if err := s.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("record-withdrawal", err)
	}
	return ft, nil
}

// RecordTransfer re-checks the source's admission, then appends one journal
// row and both TRANSFER entries sharing the same timestamp.
func (s *TransactionStore) RecordTransfer(ctx context.Context, from, to int64, amount models.Money, mode models.TransferMode, at time.Time, limit models.PrivilegeLimit) (*models.FundTransfer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("record-transfer", err)
	}
	defer tx.Rollback(ctx)

	usage, err := dailyUsageTx(ctx, tx, from, at)
	if err != nil {
		return nil, err
	}
	if err := limit.Admit(usage, amount); err != nil {
		return nil, err
	}

	ft := &models.FundTransfer{
		ID:          uuid.New().String(),
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Mode:        mode,
		At:          at,
	}
	if err := s.insertTransfer(ctx, tx, ft); err != nil {
		return nil, err
	}
	for _, account := range []int64{from, to} {
		entry := &models.TransactionEntry{
			ID:            uuid.New().String(),
			AccountNumber: account,
			Amount:        amount,
			Kind:          models.EntryTransfer,
			At:            at,
		}
		if err := s.insertEntry(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("record-transfer", err)
	}
	return ft, nil
}

// RecordReconciliation appends the distinguished journal marker for a
// transfer left in a money-missing state. No ledger entries accompany it;
// operators resolve the row by hand.
func (s *TransactionStore) RecordReconciliation(ctx context.Context, from, to int64, amount models.Money, at time.Time) (*models.FundTransfer, error) {
	ft := &models.FundTransfer{
		ID:          uuid.New().String(),
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Mode:        models.ModeReconcile,
		At:          at,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fund_transfers (id, from_account, to_account, amount_cents, mode, at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ft.ID, ft.FromAccount, ft.ToAccount, ft.Amount.Cents(), ft.Mode, ft.At)
	if err != nil {
		return nil, storageFailure("record-reconciliation", err)
	}
	return ft, nil
}

// ListEntries returns the account's ledger entries, newest first.
func (s *TransactionStore) ListEntries(ctx context.Context, account int64, limit int) ([]models.TransactionEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_number, amount_cents, kind, at
		FROM transaction_logging
		WHERE account_number = $1
		ORDER BY at DESC, id DESC LIMIT $2`, account, limit)
	if err != nil {
		return nil, storageFailure("list-entries", err)
	}
	defer rows.Close()

	var entries []models.TransactionEntry
	for rows.Next() {
		var e models.TransactionEntry
		var cents int64
		if err := rows.Scan(&e.ID, &e.AccountNumber, &cents, &e.Kind, &e.At); err != nil {
			return nil, storageFailure("list-entries", err)
		}
		e.Amount = models.Money(cents)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailure("list-entries", err)
	}
	return entries, nil
}
