package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// Compile-time interface check
var _ interfaces.AccountStore = (*AccountStore)(nil)

// AccountStore persists accounts, child detail records, and the append-only
// audit log in accounts_db.
type AccountStore struct {
	pool   *pgxpool.Pool
	logger *common.Logger
}

// NewAccountStore wraps an open pool.
func NewAccountStore(pool *pgxpool.Pool, logger *common.Logger) *AccountStore {
	return &AccountStore{pool: pool, logger: logger}
}

// Close releases the pool.
func (s *AccountStore) Close() error {
	s.pool.Close()
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func storageFailure(op string, err error) error {
	return models.WrapError(models.CodeStorageFailure, err, "storage failure during %s", op)
}

// Create inserts the account, its single child record, and the CREATE audit
// row in one transaction. The savings (holder_name, date_of_birth) duplicate
// rule spans two tables, so it is checked inside the same transaction rather
// than by an index.
func (s *AccountStore) Create(ctx context.Context, acct *models.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageFailure("create", err)
	}
	defer tx.Rollback(ctx)

	if acct.Kind == models.KindSavings {
		var exists bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM accounts a
				JOIN savings_details d ON d.account_number = a.account_number
				WHERE a.holder_name = $1 AND d.date_of_birth = $2 AND a.closed_at IS NULL
			)`, acct.HolderName, acct.Savings.DateOfBirth).Scan(&exists)
		if err != nil {
			return storageFailure("create", err)
		}
		if exists {
			return models.NewError(models.CodeDuplicate,
				"a savings account for this holder and date of birth already exists")
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (kind, holder_name, pin_hash, balance_cents, privilege, owner_id, active, activated_at)
		VALUES ($1, $2, $3, 0, $4, NULLIF($5, ''), TRUE, now())
		RETURNING account_number, activated_at`,
		acct.Kind, acct.HolderName, acct.PinHash, acct.Privilege, acct.OwnerID,
	).Scan(&acct.AccountNumber, &acct.ActivatedAt)
	if err != nil {
		return storageFailure("create", err)
	}
	acct.Active = true
	acct.Balance = 0

	switch acct.Kind {
	case models.KindSavings:
		acct.Savings.AccountNumber = acct.AccountNumber
		_, err = tx.Exec(ctx, `
			INSERT INTO savings_details (account_number, date_of_birth, gender, phone_number)
			VALUES ($1, $2, $3, $4)`,
			acct.AccountNumber, acct.Savings.DateOfBirth, acct.Savings.Gender, acct.Savings.PhoneNumber)
	case models.KindCurrent:
		acct.Current.AccountNumber = acct.AccountNumber
		_, err = tx.Exec(ctx, `
			INSERT INTO current_details (account_number, company_name, website, registration_number)
			VALUES ($1, $2, NULLIF($3, ''), $4)`,
			acct.AccountNumber, acct.Current.CompanyName, acct.Current.Website, acct.Current.RegistrationNumber)
	default:
		return models.NewError(models.CodeValidation, "unknown account kind %q", acct.Kind)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewError(models.CodeDuplicate, "registration number already in use")
		}
		return storageFailure("create", err)
	}

	after, _ := json.Marshal(map[string]any{
		"kind":      acct.Kind,
		"privilege": acct.Privilege,
		"balance":   models.Money(0).String(),
	})
	if err := insertAudit(ctx, tx, acct.AccountNumber, models.AuditCreate, nil, after); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageFailure("create", err)
	}
	return nil
}

// insertAudit writes one audit row inside the caller's transaction; audit
// failure fails the whole enclosing operation.
func insertAudit(ctx context.Context, tx pgx.Tx, account int64, action models.AuditAction, before, after []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO account_audit (account_number, action, before_json, after_json, at)
		VALUES ($1, $2, $3, $4, now())`,
		account, action, nullableJSON(before), nullableJSON(after))
	if err != nil {
		return storageFailure("audit", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

const accountColumns = `
	a.account_number, a.kind, a.holder_name, a.pin_hash, a.balance_cents,
	a.privilege, COALESCE(a.owner_id, ''), a.active, a.activated_at, a.closed_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var acct models.Account
	var cents int64
	err := row.Scan(
		&acct.AccountNumber, &acct.Kind, &acct.HolderName, &acct.PinHash, &cents,
		&acct.Privilege, &acct.OwnerID, &acct.Active, &acct.ActivatedAt, &acct.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storageFailure("get", err)
	}
	acct.Balance = models.Money(cents)
	return &acct, nil
}

// Get returns the account with its child detail record attached.
func (s *AccountStore) Get(ctx context.Context, number int64) (*models.Account, error) {
	acct, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.account_number = $1`, number))
	if err != nil {
		return nil, err
	}

	switch acct.Kind {
	case models.KindSavings:
		var d models.SavingsDetails
		d.AccountNumber = number
		err = s.pool.QueryRow(ctx, `
			SELECT date_of_birth, gender, phone_number
			FROM savings_details WHERE account_number = $1`, number,
		).Scan(&d.DateOfBirth, &d.Gender, &d.PhoneNumber)
		if err != nil {
			return nil, storageFailure("get", err)
		}
		acct.Savings = &d
	case models.KindCurrent:
		var d models.CurrentDetails
		var website *string
		d.AccountNumber = number
		err = s.pool.QueryRow(ctx, `
			SELECT company_name, website, registration_number
			FROM current_details WHERE account_number = $1`, number,
		).Scan(&d.CompanyName, &website, &d.RegistrationNumber)
		if err != nil {
			return nil, storageFailure("get", err)
		}
		if website != nil {
			d.Website = *website
		}
		acct.Current = &d
	}
	return acct, nil
}

// lockAccount re-reads the row under an exclusive lock inside tx.
func lockAccount(ctx context.Context, tx pgx.Tx, number int64) (*models.Account, error) {
	return scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.account_number = $1 FOR UPDATE`, number))
}

// UpdateProfile applies a partial name/privilege update with an EDIT audit
// row carrying before/after snapshots.
func (s *AccountStore) UpdateProfile(ctx context.Context, number int64, holderName *string, privilege *models.Privilege) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("update", err)
	}
	defer tx.Rollback(ctx)

	acct, err := lockAccount(ctx, tx, number)
	if err != nil {
		return nil, err
	}
	if acct.Closed() {
		return nil, models.ErrAccountClosed
	}

	before, _ := json.Marshal(map[string]any{
		"holder_name": acct.HolderName,
		"privilege":   acct.Privilege,
	})

	action := models.AuditEdit
	if holderName != nil {
		acct.HolderName = *holderName
	}
	if privilege != nil {
		if holderName == nil {
			action = models.AuditPrivilegeUpdate
		}
		acct.Privilege = *privilege
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts SET holder_name = $2, privilege = $3 WHERE account_number = $1`,
		number, acct.HolderName, acct.Privilege)
	if err != nil {
		return nil, storageFailure("update", err)
	}

	after, _ := json.Marshal(map[string]any{
		"holder_name": acct.HolderName,
		"privilege":   acct.Privilege,
	})
	if err := insertAudit(ctx, tx, number, action, before, after); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("update", err)
	}
	return acct, nil
}

// SetActive flips the activation flag, rejecting redundant transitions.
func (s *AccountStore) SetActive(ctx context.Context, number int64, active bool) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("set-active", err)
	}
	defer tx.Rollback(ctx)

	acct, err := lockAccount(ctx, tx, number)
	if err != nil {
		return nil, err
	}
	if acct.Closed() {
		return nil, models.ErrAccountClosed
	}
	if acct.Active == active {
		if active {
			return nil, models.NewError(models.CodeAlreadyActive, "account %d is already active", number)
		}
		return nil, models.NewError(models.CodeAlreadyInactive, "account %d is already inactive", number)
	}

	before, _ := json.Marshal(map[string]bool{"active": acct.Active})
	after, _ := json.Marshal(map[string]bool{"active": active})

	_, err = tx.Exec(ctx, `UPDATE accounts SET active = $2 WHERE account_number = $1`, number, active)
	if err != nil {
		return nil, storageFailure("set-active", err)
	}

	action := models.AuditActivate
	if !active {
		action = models.AuditInactivate
	}
	if err := insertAudit(ctx, tx, number, action, before, after); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("set-active", err)
	}
	acct.Active = active
	return acct, nil
}

// CloseAccount terminally closes the account. Close is accepted regardless
// of balance; the service logs the operator warning for non-zero balances.
func (s *AccountStore) CloseAccount(ctx context.Context, number int64) (*models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailure("close", err)
	}
	defer tx.Rollback(ctx)

	acct, err := lockAccount(ctx, tx, number)
	if err != nil {
		return nil, err
	}
	if acct.Closed() {
		return nil, models.ErrAccountClosed
	}

	before, _ := json.Marshal(map[string]any{"active": acct.Active, "closed": false})

	var closedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET active = FALSE, closed_at = now()
		WHERE account_number = $1
		RETURNING closed_at`, number).Scan(&closedAt)
	if err != nil {
		return nil, storageFailure("close", err)
	}

	after, _ := json.Marshal(map[string]any{"active": false, "closed": true, "balance": acct.Balance.String()})
	if err := insertAudit(ctx, tx, number, models.AuditClose, before, after); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailure("close", err)
	}
	acct.Active = false
	acct.ClosedAt = &closedAt
	return acct, nil
}

// GetPinHash returns the stored PIN hash.
func (s *AccountStore) GetPinHash(ctx context.Context, number int64) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT pin_hash FROM accounts WHERE account_number = $1`, number).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", storageFailure("get-pin-hash", err)
	}
	return hash, nil
}

// Debit deducts amount inside one transaction: row lock, lifecycle and funds
// checks, balance write, BALANCE_UPDATE audit. No observable intermediate
// state exists outside the lock.
func (s *AccountStore) Debit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	return s.applyBalance(ctx, number, -amount)
}

// Credit adds amount with the same atomicity; the only failure beyond
// lifecycle checks is the representable-balance ceiling.
func (s *AccountStore) Credit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	return s.applyBalance(ctx, number, amount)
}

func (s *AccountStore) applyBalance(ctx context.Context, number int64, delta models.Money) (models.Money, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, storageFailure("balance-update", err)
	}
	defer tx.Rollback(ctx)

	acct, err := lockAccount(ctx, tx, number)
	if err != nil {
		return 0, err
	}
	if acct.Closed() {
		return 0, models.ErrAccountClosed
	}
	if !acct.Active {
		return 0, models.ErrAccountInactive
	}

	newBalance, ok := acct.Balance.Add(delta)
	if !ok {
		return 0, models.ErrBalanceOverflow
	}
	if newBalance < 0 {
		return 0, models.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET balance_cents = $2 WHERE account_number = $1`,
		number, newBalance.Cents())
	if err != nil {
		return 0, storageFailure("balance-update", err)
	}

	before, _ := json.Marshal(map[string]string{"balance": acct.Balance.String()})
	after, _ := json.Marshal(map[string]string{"balance": newBalance.String()})
	if err := insertAudit(ctx, tx, number, models.AuditBalanceUpdate, before, after); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageFailure("balance-update", err)
	}
	return newBalance, nil
}

// GetStatus returns the lifecycle view; a missing account is not an error.
func (s *AccountStore) GetStatus(ctx context.Context, number int64) (models.ActiveStatus, error) {
	var status models.ActiveStatus
	var closedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT active, closed_at FROM accounts WHERE account_number = $1`, number,
	).Scan(&status.Active, &closedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ActiveStatus{}, nil
		}
		return models.ActiveStatus{}, storageFailure("get-status", err)
	}
	status.Exists = true
	status.Closed = closedAt != nil
	return status, nil
}

// ListAudit returns the newest audit rows for the account.
func (s *AccountStore) ListAudit(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_number, action, before_json, after_json, at
		FROM account_audit WHERE account_number = $1
		ORDER BY id DESC LIMIT $2`, number, limit)
	if err != nil {
		return nil, storageFailure("list-audit", err)
	}
	defer rows.Close()

	var audits []models.AccountAudit
	for rows.Next() {
		var a models.AccountAudit
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.Action, &a.Before, &a.After, &a.At); err != nil {
			return nil, storageFailure("list-audit", err)
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailure("list-audit", err)
	}
	return audits, nil
}
