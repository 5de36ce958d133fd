package models

import (
	"time"
)

// AccountKind discriminates the closed SAVINGS/CURRENT sum. Exactly one child
// detail record exists per account, matching the kind.
type AccountKind string

const (
	KindSavings AccountKind = "SAVINGS"
	KindCurrent AccountKind = "CURRENT"
)

// Privilege is the tier controlling daily withdrawal/transfer caps.
type Privilege string

const (
	PrivilegeSilver  Privilege = "SILVER"
	PrivilegeGold    Privilege = "GOLD"
	PrivilegePremium Privilege = "PREMIUM"
)

// ValidPrivilege reports whether p is a recognized tier.
func ValidPrivilege(p Privilege) bool {
	switch p {
	case PrivilegeSilver, PrivilegeGold, PrivilegePremium:
		return true
	}
	return false
}

// Gender values accepted for savings accounts.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOthers Gender = "Others"
)

// ValidGender reports whether g is a recognized value.
func ValidGender(g Gender) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOthers:
		return true
	}
	return false
}

// Account is the parent ledger row. PINs are stored only as a bcrypt hash.
type Account struct {
	AccountNumber int64       `json:"account_number"`
	Kind          AccountKind `json:"kind"`
	HolderName    string      `json:"holder_name"`
	PinHash       string      `json:"-"`
	Balance       Money       `json:"balance"`
	Privilege     Privilege   `json:"privilege"`
	OwnerID       string      `json:"owner_id,omitempty"`
	Active        bool        `json:"active"`
	ActivatedAt   time.Time   `json:"activated_at"`
	ClosedAt      *time.Time  `json:"closed_at,omitempty"`

	Savings *SavingsDetails `json:"savings,omitempty"`
	Current *CurrentDetails `json:"current,omitempty"`
}

// Closed reports whether the account has been terminally closed.
func (a *Account) Closed() bool { return a.ClosedAt != nil }

// SavingsDetails is the child record for SAVINGS accounts.
type SavingsDetails struct {
	AccountNumber int64     `json:"-"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Gender        Gender    `json:"gender"`
	PhoneNumber   string    `json:"phone_number"`
}

// CurrentDetails is the child record for CURRENT accounts.
type CurrentDetails struct {
	AccountNumber      int64  `json:"-"`
	CompanyName        string `json:"company_name"`
	Website            string `json:"website,omitempty"`
	RegistrationNumber string `json:"registration_number"`
}

// AuditAction enumerates the append-only account audit actions.
type AuditAction string

const (
	AuditCreate          AuditAction = "CREATE"
	AuditActivate        AuditAction = "ACTIVATE"
	AuditInactivate      AuditAction = "INACTIVATE"
	AuditClose           AuditAction = "CLOSE"
	AuditBalanceUpdate   AuditAction = "BALANCE_UPDATE"
	AuditPrivilegeUpdate AuditAction = "PRIVILEGE_UPDATE"
	AuditEdit            AuditAction = "EDIT"
)

// AccountAudit is one append-only audit row. Before/After hold JSON snapshots
// of the fields the action touched; nil when not applicable.
type AccountAudit struct {
	ID            int64       `json:"id"`
	AccountNumber int64       `json:"account_number"`
	Action        AuditAction `json:"action"`
	Before        []byte      `json:"before,omitempty"`
	After         []byte      `json:"after,omitempty"`
	At            time.Time   `json:"at"`
}

// ActiveStatus is the minimal view the Transactions service needs of an
// account's lifecycle state.
type ActiveStatus struct {
	Exists bool `json:"exists"`
	Active bool `json:"active"`
	Closed bool `json:"closed"`
}
