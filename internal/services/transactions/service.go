// Package transactions implements the money-movement orchestration: deposits,
// withdrawals, and transfers against the privileged Accounts surface, plus the
// daily-limit accounting derived from the journal.
package transactions

import (
	"context"
	"time"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// Compile-time interface check
var _ interfaces.TransactionService = (*Service)(nil)

// MaxDeposit caps a single deposit at 10,000,000,000.00 to keep even extreme
// balances far from the representable ceiling.
const MaxDeposit = models.Money(1_000_000_000_000)

// Service implements TransactionService. It holds no monetary state of its
// own; balances live behind the AccountsClient, and the journal is the only
// local source of truth.
type Service struct {
	store       interfaces.TransactionStore
	accounts    interfaces.AccountsClient
	limits      models.PrivilegeTable
	logger      *common.Logger
	journal     *common.Logger
	compTimeout time.Duration
	now         func() time.Time
}

// NewService creates the transactions service. journal is the dedicated
// money-movement file logger; compTimeout bounds the compensating credit
// attempted after a failed transfer leg.
func NewService(store interfaces.TransactionStore, accounts interfaces.AccountsClient,
	limits models.PrivilegeTable, logger, journal *common.Logger, compTimeout time.Duration) *Service {
	return &Service{
		store:       store,
		accounts:    accounts,
		limits:      limits,
		logger:      logger,
		journal:     journal,
		compTimeout: compTimeout,
		now:         time.Now,
	}
}

// limitFor resolves the account's tier to its daily caps.
func (s *Service) limitFor(ctx context.Context, account int64) (models.PrivilegeLimit, error) {
	priv, err := s.accounts.GetPrivilege(ctx, account)
	if err != nil {
		return models.PrivilegeLimit{}, err
	}
	limit, ok := s.limits[priv]
	if !ok {
		return models.PrivilegeLimit{}, models.NewError(models.CodeInvalidPrivilege,
			"no daily caps configured for privilege %s", priv)
	}
	return limit, nil
}

func validateAmount(amount models.Money) error {
	if amount <= 0 {
		return models.NewError(models.CodeValidation, "amount must be positive")
	}
	return nil
}

// Deposit credits the account and journals the movement. Deposits do not
// consume daily limits.
func (s *Service) Deposit(ctx context.Context, account int64, amount models.Money) (*interfaces.TransactionResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if amount > MaxDeposit {
		return nil, models.NewError(models.CodeValidation,
			"deposit exceeds the single-operation maximum of %s", MaxDeposit)
	}

	balance, err := s.accounts.Credit(ctx, account, amount)
	if err != nil {
		return nil, err
	}

	ft, err := s.store.RecordDeposit(ctx, account, amount, s.now())
	if err != nil {
		// Money is credited but unjournaled. Surface the failure loudly;
		// the account-side audit row still covers the movement.
		s.logger.Error().Err(err).
			Int64("account", account).
			Str("amount", amount.String()).
			Msg("Deposit credited but journal write failed")
		return nil, err
	}

	s.logMovement(ft)
	return &interfaces.TransactionResult{Transfer: ft, Balance: balance}, nil
}

// Withdraw verifies the PIN, checks the daily caps, debits the account, and
// journals the movement. If the in-transaction admission re-check fails after
// the debit committed, the debit is compensated with a credit.
func (s *Service) Withdraw(ctx context.Context, account int64, amount models.Money, pin string) (*interfaces.TransactionResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	ok, err := s.accounts.VerifyPin(ctx, account, pin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidPin
	}

	limit, err := s.limitFor(ctx, account)
	if err != nil {
		return nil, err
	}
	usage, err := s.store.DailyUsage(ctx, account, s.now())
	if err != nil {
		return nil, err
	}
	if err := limit.Admit(usage, amount); err != nil {
		return nil, err
	}

	balance, err := s.accounts.Debit(ctx, account, amount)
	if err != nil {
		return nil, err
	}

	ft, err := s.store.RecordWithdrawal(ctx, account, amount, s.now(), limit)
	if err != nil {
		s.compensate(account, amount, "withdrawal journal rejected after debit")
		return nil, err
	}

	s.logMovement(ft)
	return &interfaces.TransactionResult{Transfer: ft, Balance: balance}, nil
}

// Transfer moves money between two distinct accounts: debit the source first,
// then credit the destination. A failed credit triggers one compensating
// credit back to the source; if that also fails, the transfer is journaled as
// NEEDS_RECONCILIATION for manual resolution.
func (s *Service) Transfer(ctx context.Context, in interfaces.TransferInput) (*interfaces.TransactionResult, error) {
	if in.From == in.To {
		return nil, models.NewError(models.CodeSameAccount,
			"source and destination accounts must differ")
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if !models.ValidTransferMode(in.Mode) {
		return nil, models.NewError(models.CodeInvalidMode, "unknown transfer mode %q", in.Mode)
	}

	ok, err := s.accounts.VerifyPin(ctx, in.From, in.Pin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidPin
	}

	for _, account := range []int64{in.From, in.To} {
		if err := s.requireActive(ctx, account); err != nil {
			return nil, err
		}
	}

	limit, err := s.limitFor(ctx, in.From)
	if err != nil {
		return nil, err
	}
	usage, err := s.store.DailyUsage(ctx, in.From, s.now())
	if err != nil {
		return nil, err
	}
	if err := limit.Admit(usage, in.Amount); err != nil {
		return nil, err
	}

	balance, err := s.accounts.Debit(ctx, in.From, in.Amount)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.Credit(ctx, in.To, in.Amount); err != nil {
		s.undoDebit(in.From, in.To, in.Amount)
		return nil, err
	}

	ft, err := s.store.RecordTransfer(ctx, in.From, in.To, in.Amount, in.Mode, s.now(), limit)
	if err != nil {
		s.undoTransfer(in.From, in.To, in.Amount)
		return nil, err
	}

	s.logMovement(ft)
	return &interfaces.TransactionResult{Transfer: ft, Balance: balance}, nil
}

// requireActive rejects transfers touching missing, closed, or inactive
// accounts before any money moves.
func (s *Service) requireActive(ctx context.Context, account int64) (err error) {
	status, err := s.accounts.GetStatus(ctx, account)
	if err != nil {
		return err
	}
	switch {
	case !status.Exists:
		return models.NewError(models.CodeNotFound, "account %d not found", account)
	case status.Closed:
		return models.NewError(models.CodeAccountClosed, "account %d is closed", account)
	case !status.Active:
		return models.NewError(models.CodeAccountInactive, "account %d is inactive", account)
	}
	return nil
}

// compTx returns a fresh context for compensation work. The caller's context
// may already be cancelled or expired, and abandoning the compensation would
// strand money, so the deadline is generous and detached.
func (s *Service) compTx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.compTimeout)
}

// compensate credits amount back to the source after a debit whose follow-up
// failed. A compensation failure for a withdrawal has no destination account,
// so it is only logged; the account-side audit preserves the debit.
func (s *Service) compensate(account int64, amount models.Money, reason string) {
	ctx, cancel := s.compTx()
	defer cancel()
	if _, err := s.accounts.Credit(ctx, account, amount); err != nil {
		s.logger.Error().Err(err).
			Int64("account", account).
			Str("amount", amount.String()).
			Str("reason", reason).
			Msg("COMPENSATION FAILED: debited amount not restored")
		return
	}
	s.logger.Warn().
		Int64("account", account).
		Str("amount", amount.String()).
		Str("reason", reason).
		Msg("Compensating credit applied")
}

// undoDebit restores the source after the destination credit failed. If the
// compensating credit also fails the transfer is journaled for manual
// reconciliation.
func (s *Service) undoDebit(from, to int64, amount models.Money) {
	ctx, cancel := s.compTx()
	defer cancel()
	if _, err := s.accounts.Credit(ctx, from, amount); err != nil {
		s.markReconciliation(ctx, from, to, amount, err)
		return
	}
	s.logger.Warn().
		Int64("from", from).
		Int64("to", to).
		Str("amount", amount.String()).
		Msg("Transfer credit failed; source restored")
}

// undoTransfer reverses a fully-moved transfer whose journal insert was
// rejected: debit the destination, then credit the source. Either leg failing
// leaves the books inconsistent, so it is journaled for reconciliation.
func (s *Service) undoTransfer(from, to int64, amount models.Money) {
	ctx, cancel := s.compTx()
	defer cancel()
	if _, err := s.accounts.Debit(ctx, to, amount); err != nil {
		s.markReconciliation(ctx, from, to, amount, err)
		return
	}
	if _, err := s.accounts.Credit(ctx, from, amount); err != nil {
		s.markReconciliation(ctx, from, to, amount, err)
		return
	}
	s.logger.Warn().
		Int64("from", from).
		Int64("to", to).
		Str("amount", amount.String()).
		Msg("Transfer journal rejected; both legs reversed")
}

// markReconciliation records the NEEDS_RECONCILIATION journal marker and logs
// at error level. Operators resolve these rows by hand.
func (s *Service) markReconciliation(ctx context.Context, from, to int64, amount models.Money, cause error) {
	s.logger.Error().Err(cause).
		Int64("from", from).
		Int64("to", to).
		Str("amount", amount.String()).
		Msg("COMPENSATION FAILED: transfer needs reconciliation")
	if _, err := s.store.RecordReconciliation(ctx, from, to, amount, s.now()); err != nil {
		s.logger.Error().Err(err).
			Int64("from", from).
			Int64("to", to).
			Str("amount", amount.String()).
			Msg("Failed to journal reconciliation marker")
	}
}

// Limits reports the account's daily caps and what remains of them today.
func (s *Service) Limits(ctx context.Context, account int64) (*models.TransferLimits, error) {
	if err := s.requireExists(ctx, account); err != nil {
		return nil, err
	}
	priv, err := s.accounts.GetPrivilege(ctx, account)
	if err != nil {
		return nil, err
	}
	limit, ok := s.limits[priv]
	if !ok {
		return nil, models.NewError(models.CodeInvalidPrivilege,
			"no daily caps configured for privilege %s", priv)
	}
	usage, err := s.store.DailyUsage(ctx, account, s.now())
	if err != nil {
		return nil, err
	}

	remAmount := limit.DailyAmount - usage.Amount
	if remAmount < 0 {
		remAmount = 0
	}
	remCount := limit.DailyCount - usage.Count
	if remCount < 0 {
		remCount = 0
	}
	return &models.TransferLimits{
		AccountNumber:   account,
		Privilege:       priv,
		CapAmount:       limit.DailyAmount,
		CapCount:        limit.DailyCount,
		UsedAmount:      usage.Amount,
		UsedCount:       usage.Count,
		RemainingAmount: remAmount,
		RemainingCount:  remCount,
	}, nil
}

// Logs lists the account's ledger entries, newest first.
func (s *Service) Logs(ctx context.Context, account int64, limit int) ([]models.TransactionEntry, error) {
	if err := s.requireExists(ctx, account); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, account, limit)
}

func (s *Service) requireExists(ctx context.Context, account int64) error {
	status, err := s.accounts.GetStatus(ctx, account)
	if err != nil {
		return err
	}
	if !status.Exists {
		return models.NewError(models.CodeNotFound, "account %d not found", account)
	}
	return nil
}

// logMovement appends one line to the money-movement file log.
func (s *Service) logMovement(ft *models.FundTransfer) {
	s.journal.Info().
		Str("id", ft.ID).
		Int64("from", ft.FromAccount).
		Int64("to", ft.ToAccount).
		Str("amount", ft.Amount.String()).
		Str("mode", string(ft.Mode)).
		Time("at", ft.At).
		Msg("movement")
}
