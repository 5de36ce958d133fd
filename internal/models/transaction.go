package models

import (
	"time"
)

// TransferMode enumerates the accepted money-movement rails. ModeReconcile is
// the distinguished journal marker for a transfer whose compensating credit
// failed; it is never accepted from clients.
type TransferMode string

const (
	ModeNEFT      TransferMode = "NEFT"
	ModeRTGS      TransferMode = "RTGS"
	ModeIMPS      TransferMode = "IMPS"
	ModeUPI       TransferMode = "UPI"
	ModeCheque    TransferMode = "CHEQUE"
	ModeReconcile TransferMode = "NEEDS_RECONCILIATION"
)

// ValidTransferMode reports whether m is a client-supplied rail.
func ValidTransferMode(m TransferMode) bool {
	switch m {
	case ModeNEFT, ModeRTGS, ModeIMPS, ModeUPI, ModeCheque:
		return true
	}
	return false
}

// SentinelAccount is recorded as the source of a pure deposit and the
// destination of a pure withdrawal in the fund-transfer journal.
const SentinelAccount int64 = 0

// FundTransfer is one append-only journal row per money-moving operation.
type FundTransfer struct {
	ID          string       `json:"id"`
	FromAccount int64        `json:"from_account"`
	ToAccount   int64        `json:"to_account"`
	Amount      Money        `json:"amount"`
	Mode        TransferMode `json:"mode"`
	At          time.Time    `json:"at"`
}

// EntryKind tags one ledger leg of an operation.
type EntryKind string

const (
	EntryWithdraw EntryKind = "WITHDRAW"
	EntryDeposit  EntryKind = "DEPOSIT"
	EntryTransfer EntryKind = "TRANSFER"
)

// TransactionEntry is one per-account ledger row. A transfer produces two
// entries sharing the same timestamp and amount, both tagged TRANSFER.
type TransactionEntry struct {
	ID            string    `json:"id"`
	AccountNumber int64     `json:"account_number"`
	Amount        Money     `json:"amount"`
	Kind          EntryKind `json:"kind"`
	At            time.Time `json:"at"`
}

// PrivilegeLimit is the per-tier daily cap configuration.
type PrivilegeLimit struct {
	DailyAmount Money `json:"daily_amount"`
	DailyCount  int   `json:"daily_count"`
}

// PrivilegeTable maps every tier to its daily caps. Loaded once from config
// and immutable for the process lifetime.
type PrivilegeTable map[Privilege]PrivilegeLimit

// DailyUsage is the derived consumption of an account's daily cap: the sum
// and count of WITHDRAW and TRANSFER-source entries on the current UTC day.
type DailyUsage struct {
	Amount Money `json:"amount"`
	Count  int   `json:"count"`
}

// Admit reports whether one more operation of the given amount fits under
// the cap. used+amount == cap is admissible; one cent past it is not.
func (l PrivilegeLimit) Admit(usage DailyUsage, amount Money) error {
	newAmount, ok := usage.Amount.Add(amount)
	if !ok || newAmount > l.DailyAmount {
		return NewError(CodeDailyLimitExceeded,
			"daily amount limit of %s exceeded", l.DailyAmount)
	}
	if usage.Count+1 > l.DailyCount {
		return NewError(CodeDailyCountExceeded,
			"daily transaction count limit of %d exceeded", l.DailyCount)
	}
	return nil
}

// TransferLimits is the response of the limits query endpoint.
type TransferLimits struct {
	AccountNumber   int64     `json:"account_number"`
	Privilege       Privilege `json:"privilege"`
	CapAmount       Money     `json:"cap_amount"`
	CapCount        int       `json:"cap_count"`
	UsedAmount      Money     `json:"used_amount"`
	UsedCount       int       `json:"used_count"`
	RemainingAmount Money     `json:"remaining_amount"`
	RemainingCount  int       `json:"remaining_count"`
}
