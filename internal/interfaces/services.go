package interfaces

import (
	"context"
	"time"

	"github.com/gdbank/gdb/internal/models"
)

// CreateSavingsInput carries the validated-by-service fields for opening a
// savings account.
type CreateSavingsInput struct {
	HolderName  string
	Pin         string
	DateOfBirth time.Time
	Gender      models.Gender
	PhoneNumber string
	Privilege   models.Privilege
	OwnerID     string
}

// CreateCurrentInput carries the fields for opening a current account.
type CreateCurrentInput struct {
	HolderName         string
	Pin                string
	CompanyName        string
	Website            string
	RegistrationNumber string
	Privilege          models.Privilege
	OwnerID            string
}

// UpdateAccountInput is a partial non-monetary update; at least one field
// must be set.
type UpdateAccountInput struct {
	HolderName *string
	Privilege  *models.Privilege
}

// AccountService is the Accounts business logic: validation, the PIN vault,
// the activation lifecycle, and the privileged debit/credit operations.
type AccountService interface {
	CreateSavings(ctx context.Context, in CreateSavingsInput) (*models.Account, error)
	CreateCurrent(ctx context.Context, in CreateCurrentInput) (*models.Account, error)
	Get(ctx context.Context, number int64) (*models.Account, error)
	Update(ctx context.Context, number int64, in UpdateAccountInput) (*models.Account, error)
	Activate(ctx context.Context, number int64) (*models.Account, error)
	Inactivate(ctx context.Context, number int64) (*models.Account, error)
	Close(ctx context.Context, number int64) (*models.Account, error)

	// VerifyPin compares against the stored hash in constant time. The
	// privileged variant never distinguishes a missing account from a bad
	// PIN.
	VerifyPin(ctx context.Context, number int64, pin string) (bool, error)

	Debit(ctx context.Context, number int64, amount models.Money) (models.Money, error)
	Credit(ctx context.Context, number int64, amount models.Money) (models.Money, error)
	Privilege(ctx context.Context, number int64) (models.Privilege, error)
	Status(ctx context.Context, number int64) (models.ActiveStatus, error)
	Audit(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error)
}

// TransferInput carries a transfer request after wire-level parsing.
type TransferInput struct {
	From   int64
	To     int64
	Amount models.Money
	Mode   models.TransferMode
	Pin    string
}

// TransactionResult is the outcome of a successful money movement.
type TransactionResult struct {
	Transfer *models.FundTransfer `json:"transfer"`
	Balance  models.Money         `json:"balance"`
}

// TransactionService orchestrates deposits, withdrawals, and transfers
// against the privileged Accounts surface, and owns the daily-limit
// accounting over the journal.
type TransactionService interface {
	Deposit(ctx context.Context, account int64, amount models.Money) (*TransactionResult, error)
	Withdraw(ctx context.Context, account int64, amount models.Money, pin string) (*TransactionResult, error)
	Transfer(ctx context.Context, in TransferInput) (*TransactionResult, error)
	Limits(ctx context.Context, account int64) (*models.TransferLimits, error)
	Logs(ctx context.Context, account int64, limit int) ([]models.TransactionEntry, error)
}
