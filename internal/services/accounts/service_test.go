package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// mockStore implements interfaces.AccountStore with overridable functions.
type mockStore struct {
	createFn     func(ctx context.Context, acct *models.Account) error
	getFn        func(ctx context.Context, number int64) (*models.Account, error)
	updateFn     func(ctx context.Context, number int64, name *string, priv *models.Privilege) (*models.Account, error)
	setActiveFn  func(ctx context.Context, number int64, active bool) (*models.Account, error)
	closeAcctFn  func(ctx context.Context, number int64) (*models.Account, error)
	getPinHashFn func(ctx context.Context, number int64) (string, error)
	debitFn      func(ctx context.Context, number int64, amount models.Money) (models.Money, error)
	creditFn     func(ctx context.Context, number int64, amount models.Money) (models.Money, error)
	getStatusFn  func(ctx context.Context, number int64) (models.ActiveStatus, error)
	listAuditFn  func(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error)
}

var _ interfaces.AccountStore = (*mockStore)(nil)

func (m *mockStore) Create(ctx context.Context, acct *models.Account) error {
	return m.createFn(ctx, acct)
}
func (m *mockStore) Get(ctx context.Context, number int64) (*models.Account, error) {
	return m.getFn(ctx, number)
}
func (m *mockStore) UpdateProfile(ctx context.Context, number int64, name *string, priv *models.Privilege) (*models.Account, error) {
	return m.updateFn(ctx, number, name, priv)
}
func (m *mockStore) SetActive(ctx context.Context, number int64, active bool) (*models.Account, error) {
	return m.setActiveFn(ctx, number, active)
}
func (m *mockStore) CloseAccount(ctx context.Context, number int64) (*models.Account, error) {
	return m.closeAcctFn(ctx, number)
}
func (m *mockStore) GetPinHash(ctx context.Context, number int64) (string, error) {
	return m.getPinHashFn(ctx, number)
}
func (m *mockStore) Debit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	return m.debitFn(ctx, number, amount)
}
func (m *mockStore) Credit(ctx context.Context, number int64, amount models.Money) (models.Money, error) {
	return m.creditFn(ctx, number, amount)
}
func (m *mockStore) GetStatus(ctx context.Context, number int64) (models.ActiveStatus, error) {
	return m.getStatusFn(ctx, number)
}
func (m *mockStore) ListAudit(ctx context.Context, number int64, limit int) ([]models.AccountAudit, error) {
	return m.listAuditFn(ctx, number, limit)
}
func (m *mockStore) Close() error { return nil }

func newTestService(store *mockStore) *Service {
	return NewService(store, testRules(), testLogger())
}

func validSavingsInput() interfaces.CreateSavingsInput {
	return interfaces.CreateSavingsInput{
		HolderName:  "John Doe",
		Pin:         "9640",
		DateOfBirth: time.Now().UTC().AddDate(-30, 0, 0),
		Gender:      models.GenderMale,
		PhoneNumber: "0412345678",
		Privilege:   models.PrivilegeGold,
	}
}

func TestCreateSavings(t *testing.T) {
	var created *models.Account
	store := &mockStore{
		createFn: func(_ context.Context, acct *models.Account) error {
			acct.AccountNumber = 1000
			created = acct
			return nil
		},
	}
	svc := newTestService(store)

	acct, err := svc.CreateSavings(context.Background(), validSavingsInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acct.AccountNumber)
	assert.Equal(t, models.KindSavings, acct.Kind)
	assert.Equal(t, models.PrivilegeGold, acct.Privilege)
	require.NotNil(t, created.Savings)

	// The raw PIN is never stored; the hash verifies against it.
	assert.NotEqual(t, "9640", created.PinHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PinHash), []byte("9640")))
}

func TestCreateSavingsDefaultsPrivilege(t *testing.T) {
	store := &mockStore{
		createFn: func(_ context.Context, acct *models.Account) error { return nil },
	}
	svc := newTestService(store)

	in := validSavingsInput()
	in.Privilege = ""
	acct, err := svc.CreateSavings(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.PrivilegeSilver, acct.Privilege)
}

func TestCreateSavingsValidation(t *testing.T) {
	svc := newTestService(&mockStore{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*interfaces.CreateSavingsInput)
		code   models.ErrorCode
	}{
		{"sequential pin", func(in *interfaces.CreateSavingsInput) { in.Pin = "1234" }, models.CodeInvalidPinFormat},
		{"uniform pin", func(in *interfaces.CreateSavingsInput) { in.Pin = "0000" }, models.CodeInvalidPinFormat},
		{"underage", func(in *interfaces.CreateSavingsInput) {
			in.DateOfBirth = time.Now().UTC().AddDate(-17, 0, 0)
		}, models.CodeAgeRestriction},
		{"bad gender", func(in *interfaces.CreateSavingsInput) { in.Gender = "X" }, models.CodeValidation},
		{"bad phone", func(in *interfaces.CreateSavingsInput) { in.PhoneNumber = "123" }, models.CodeInvalidPhone},
		{"bad privilege", func(in *interfaces.CreateSavingsInput) { in.Privilege = "PLATINUM" }, models.CodeInvalidPrivilege},
		{"no name", func(in *interfaces.CreateSavingsInput) { in.HolderName = " " }, models.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validSavingsInput()
			tc.mutate(&in)
			_, err := svc.CreateSavings(ctx, in)
			require.Error(t, err)
			assert.Equal(t, tc.code, models.CodeOf(err))
		})
	}
}

func TestCreateCurrentRequiresCompanyFields(t *testing.T) {
	svc := newTestService(&mockStore{})
	ctx := context.Background()

	in := interfaces.CreateCurrentInput{
		HolderName:         "Acme Pty Ltd",
		Pin:                "5837",
		CompanyName:        "Acme",
		RegistrationNumber: "REG-001",
		Website:            "https://acme.example",
	}

	bad := in
	bad.CompanyName = ""
	_, err := svc.CreateCurrent(ctx, bad)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))

	bad = in
	bad.RegistrationNumber = " "
	_, err = svc.CreateCurrent(ctx, bad)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))

	bad = in
	bad.Website = "not-a-url"
	_, err = svc.CreateCurrent(ctx, bad)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestUpdateRequiresAField(t *testing.T) {
	svc := newTestService(&mockStore{})
	_, err := svc.Update(context.Background(), 1000, interfaces.UpdateAccountInput{})
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestVerifyPin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("9640"), bcrypt.MinCost)
	require.NoError(t, err)

	store := &mockStore{
		getPinHashFn: func(_ context.Context, number int64) (string, error) {
			if number == 1000 {
				return string(hash), nil
			}
			return "", models.ErrNotFound
		},
	}
	svc := newTestService(store)
	ctx := context.Background()

	ok, err := svc.VerifyPin(ctx, 1000, "9640")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPin(ctx, 1000, "0000")
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown account looks exactly like a wrong PIN.
	ok, err = svc.VerifyPin(ctx, 9999, "9640")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDebitCreditRejectNonPositive(t *testing.T) {
	svc := newTestService(&mockStore{})
	ctx := context.Background()

	_, err := svc.Debit(ctx, 1000, 0)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
	_, err = svc.Credit(ctx, 1000, -1)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestAuditUnknownAccount(t *testing.T) {
	store := &mockStore{
		getStatusFn: func(_ context.Context, _ int64) (models.ActiveStatus, error) {
			return models.ActiveStatus{}, nil
		},
	}
	svc := newTestService(store)
	_, err := svc.Audit(context.Background(), 9999, 0)
	assert.Equal(t, models.CodeNotFound, models.CodeOf(err))
}
