// Package interfaces defines the contracts between the GDB layers
package interfaces

import (
	"context"
	"time"

	"github.com/gdbank/gdb/internal/models"
)

// AccountStore is the accounts_db persistence contract. Monetary mutations
// are strictly atomic: read-check-write under a row-level exclusive lock,
// audit row written in the same transaction.
type AccountStore interface {
	// Create inserts the parent row plus exactly one child detail row and a
	// CREATE audit row in a single transaction. The account number is
	// assigned from the monotone sequence (starting at 1000) and written
	// back into acct. Duplicate (holder_name, dob) for SAVINGS and duplicate
	// registration_number for CURRENT surface as CodeDuplicate.
	Create(ctx context.Context, acct *models.Account) error

	// Get returns the account with its child detail record.
	Get(ctx context.Context, number int64) (*models.Account, error)

	// UpdateProfile applies a partial non-monetary update (name and/or
	// privilege) and writes an EDIT audit row with before/after snapshots.
	UpdateProfile(ctx context.Context, number int64, holderName *string, privilege *models.Privilege) (*models.Account, error)

	// SetActive flips the activation flag. Redundant transitions are
	// rejected with CodeAlreadyActive / CodeAlreadyInactive; closed accounts
	// with CodeAccountClosed.
	SetActive(ctx context.Context, number int64, active bool) (*models.Account, error)

	// CloseAccount terminally closes the account, setting closed_at.
	CloseAccount(ctx context.Context, number int64) (*models.Account, error)

	// GetPinHash returns the stored PIN hash for verification.
	GetPinHash(ctx context.Context, number int64) (string, error)

	// Debit deducts amount under a row lock after checking
	// active && !closed && balance >= amount. Returns the new balance.
	Debit(ctx context.Context, number int64, amount models.Money) (models.Money, error)

	// Credit adds amount under a row lock after checking active && !closed
	// and the representable-balance ceiling. Returns the new balance.
	Credit(ctx context.Context, number int64, amount models.Money) (models.Money, error)

	// GetStatus returns the minimal lifecycle view without failing on a
	// missing account.
	GetStatus(ctx context.Context, number int64) (models.ActiveStatus, error)

	// ListAudit returns the newest audit rows for an account.
	ListAudit(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error)

	Close() error
}

// TransactionStore is the transactions_db persistence contract. The journal
// is append-only; daily-limit admission is re-checked inside the same
// transaction that inserts the journal rows.
type TransactionStore interface {
	// RecordDeposit appends the FundTransfer (from the sentinel source) and
	// the single DEPOSIT entry.
	RecordDeposit(ctx context.Context, account int64, amount models.Money, at time.Time) (*models.FundTransfer, error)

	// RecordWithdrawal re-checks the daily cap for (amount, one count) under
	// the given limit and, if admissible, appends the FundTransfer (to the
	// sentinel destination) and the single WITHDRAW entry. Rolls back with
	// CodeDailyLimitExceeded / CodeDailyCountExceeded on violation.
	RecordWithdrawal(ctx context.Context, account int64, amount models.Money, at time.Time, limit models.PrivilegeLimit) (*models.FundTransfer, error)

	// RecordTransfer re-checks the source account's daily cap and appends
	// one FundTransfer plus the two TRANSFER entries sharing at.
	RecordTransfer(ctx context.Context, from, to int64, amount models.Money, mode models.TransferMode, at time.Time, limit models.PrivilegeLimit) (*models.FundTransfer, error)

	// RecordReconciliation appends the distinguished NEEDS_RECONCILIATION
	// journal row for a transfer whose compensating credit failed. No ledger
	// entries are written; the money is known to be missing.
	RecordReconciliation(ctx context.Context, from, to int64, amount models.Money, at time.Time) (*models.FundTransfer, error)

	// DailyUsage returns the sum and count of WITHDRAW and TRANSFER entries
	// for the account on the UTC day containing at.
	DailyUsage(ctx context.Context, account int64, at time.Time) (models.DailyUsage, error)

	// ListEntries returns the account's ledger entries, newest first.
	ListEntries(ctx context.Context, account int64, limit int) ([]models.TransactionEntry, error)

	Close() error
}
