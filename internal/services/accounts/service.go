// Package accounts implements the Accounts business logic: account opening,
// the activation lifecycle, the PIN vault, and the privileged balance
// mutations used by the Transactions service.
package accounts

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// Compile-time interface check
var _ interfaces.AccountService = (*Service)(nil)

// Service implements AccountService over an AccountStore.
type Service struct {
	store  interfaces.AccountStore
	rules  common.RulesConfig
	logger *common.Logger
	now    func() time.Time
}

// NewService creates the accounts service. The rules bag is loaded once and
// immutable for the process lifetime.
func NewService(store interfaces.AccountStore, rules common.RulesConfig, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// hashPin derives the salted slow hash stored in place of the PIN.
func hashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", models.WrapError(models.CodeStorageFailure, err, "failed to hash pin")
	}
	return string(hash), nil
}

// CreateSavings validates and opens a savings account.
func (s *Service) CreateSavings(ctx context.Context, in interfaces.CreateSavingsInput) (*models.Account, error) {
	if err := validateHolderName(in.HolderName); err != nil {
		return nil, err
	}
	if err := validatePin(s.rules, in.Pin); err != nil {
		return nil, err
	}
	if err := validateAge(in.DateOfBirth, s.now()); err != nil {
		return nil, err
	}
	if !models.ValidGender(in.Gender) {
		return nil, models.NewError(models.CodeValidation, "unknown gender %q", in.Gender)
	}
	if err := validatePhone(s.rules, in.PhoneNumber); err != nil {
		return nil, err
	}
	if in.Privilege == "" {
		in.Privilege = models.PrivilegeSilver
	}
	if err := validatePrivilege(in.Privilege); err != nil {
		return nil, err
	}

	pinHash, err := hashPin(in.Pin)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{
		Kind:       models.KindSavings,
		HolderName: strings.TrimSpace(in.HolderName),
		PinHash:    pinHash,
		Privilege:  in.Privilege,
		OwnerID:    in.OwnerID,
		Savings: &models.SavingsDetails{
			DateOfBirth: in.DateOfBirth,
			Gender:      in.Gender,
			PhoneNumber: in.PhoneNumber,
		},
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("account", acct.AccountNumber).
		Str("kind", string(acct.Kind)).
		Str("privilege", string(acct.Privilege)).
		Msg("Savings account opened")
	return acct, nil
}

// CreateCurrent validates and opens a current account.
func (s *Service) CreateCurrent(ctx context.Context, in interfaces.CreateCurrentInput) (*models.Account, error) {
	if err := validateHolderName(in.HolderName); err != nil {
		return nil, err
	}
	if err := validatePin(s.rules, in.Pin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, models.NewError(models.CodeValidation, "company name is required")
	}
	if strings.TrimSpace(in.RegistrationNumber) == "" {
		return nil, models.NewError(models.CodeValidation, "registration number is required")
	}
	if err := validateWebsite(in.Website); err != nil {
		return nil, err
	}
	if in.Privilege == "" {
		in.Privilege = models.PrivilegeSilver
	}
	if err := validatePrivilege(in.Privilege); err != nil {
		return nil, err
	}

	pinHash, err := hashPin(in.Pin)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{
		Kind:       models.KindCurrent,
		HolderName: strings.TrimSpace(in.HolderName),
		PinHash:    pinHash,
		Privilege:  in.Privilege,
		OwnerID:    in.OwnerID,
		Current: &models.CurrentDetails{
			CompanyName:        strings.TrimSpace(in.CompanyName),
			Website:            strings.TrimSpace(in.Website),
			RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		},
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("account", acct.AccountNumber).
		Str("kind", string(acct.Kind)).
		Str("privilege", string(acct.Privilege)).
		Msg("Current account opened")
	return acct, nil
}

// Get returns the full account details.
func (s *Service) Get(ctx context.Context, number int64) (*models.Account, error) {
	return s.store.Get(ctx, number)
}

// Update applies a partial non-monetary edit; at least one field required.
func (s *Service) Update(ctx context.Context, number int64, in interfaces.UpdateAccountInput) (*models.Account, error) {
	if in.HolderName == nil && in.Privilege == nil {
		return nil, models.NewError(models.CodeValidation, "at least one field is required")
	}
	if in.HolderName != nil {
		if err := validateHolderName(*in.HolderName); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*in.HolderName)
		in.HolderName = &trimmed
	}
	if in.Privilege != nil {
		if err := validatePrivilege(*in.Privilege); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateProfile(ctx, number, in.HolderName, in.Privilege)
}

// Activate re-enables an inactive account.
func (s *Service) Activate(ctx context.Context, number int64) (*models.Account, error) {
	acct, err := s.store.SetActive(ctx, number, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("account", number).Msg("Account activated")
	return acct, nil
}

// Inactivate suspends an active account.
func (s *Service) Inactivate(ctx context.Context, number int64) (*models.Account, error) {
	acct, err := s.store.SetActive(ctx, number, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("account", number).Msg("Account inactivated")
	return acct, nil
}

// Close terminally closes the account. Closing with a non-zero balance is
// permitted but warned about for operators.
func (s *Service) Close(ctx context.Context, number int64) (*models.Account, error) {
	acct, err := s.store.CloseAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	if acct.Balance > 0 {
		s.logger.Warn().
			Int64("account", number).
			Str("balance", acct.Balance.String()).
			Msg("Account closed with non-zero balance")
	} else {
		s.logger.Info().Int64("account", number).Msg("Account closed")
	}
	return acct, nil
}

// VerifyPin compares the candidate against the stored bcrypt hash. The
// comparison cost is independent of the stored value; a missing account
// takes the same path as a wrong PIN so existence is not disclosed.
func (s *Service) VerifyPin(ctx context.Context, number int64, pin string) (bool, error) {
	hash, err := s.store.GetPinHash(ctx, number)
	if err != nil {
		if models.CodeOf(err) == models.CodeNotFound {
			// Burn a comparison against a fixed hash so the response time
			// does not reveal whether the account exists.
			_ = bcrypt.CompareHashAndPassword([]byte(decoyHash), []byte(pin))
			return false, nil
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil, nil
}

// decoyHash is a bcrypt hash of an unguessable random value, used only to
// equalize timing on unknown accounts.
const decoyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Debit deducts from the balance; the store enforces atomicity, lifecycle,
// and sufficient funds. Amounts must be positive.
func (s *Service) Debit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	if amount <= 0 {
		return 0, models.NewError(models.CodeValidation, "amount must be positive")
	}
	balance, err := s.store.Debit(ctx, number, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Info().
		Int64("account", number).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("Account debited")
	return balance, nil
}

// Credit adds to the balance, subject to the representable ceiling.
func (s *Service) Credit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	if amount <= 0 {
		return 0, models.NewError(models.CodeValidation, "amount must be positive")
	}
	balance, err := s.store.Credit(ctx, number, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Info().
		Int64("account", number).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("Account credited")
	return balance, nil
}

// Privilege returns the account's tier.
func (s *Service) Privilege(ctx context.Context, number int64) (models.Privilege, error) {
	acct, err := s.store.Get(ctx, number)
	if err != nil {
		return "", err
	}
	return acct.Privilege, nil
}

// Status returns the lifecycle view used by the Transactions service.
func (s *Service) Status(ctx context.Context, number int64) (models.ActiveStatus, error) {
	return s.store.GetStatus(ctx, number)
}

// Audit lists the account's audit trail, newest first.
func (s *Service) Audit(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error) {
	status, err := s.store.GetStatus(ctx, number)
	if err != nil {
		return nil, err
	}
	if !status.Exists {
		return nil, models.NewError(models.CodeNotFound, "account %d not found", number)
	}
	return s.store.ListAudit(ctx, number, limit)
}
