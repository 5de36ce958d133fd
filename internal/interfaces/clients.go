package interfaces

import (
	"context"

	"github.com/gdbank/gdb/internal/models"
)

// AccountsClient is the privileged S2S capability the Transactions service
// holds against the Accounts service. Dependency failures (timeouts, 5xx)
// surface as CodeServiceUnavailable; domain failures carry their own codes.
type AccountsClient interface {
	Get(ctx context.Context, account int64) (*models.Account, error)
	GetPrivilege(ctx context.Context, account int64) (models.Privilege, error)
	GetStatus(ctx context.Context, account int64) (models.ActiveStatus, error)
	VerifyPin(ctx context.Context, account int64, pin string) (bool, error)
	Debit(ctx context.Context, account int64, amount models.Money) (models.Money, error)
	Credit(ctx context.Context, account int64, amount models.Money) (models.Money, error)
}
