package postgres

// AccountsSchema is the accounts_db layout. Balances are BIGINT cents
// (scaled integers); the account-number sequence starts at 1000 and never
// reuses a value.
const AccountsSchema = `
CREATE SEQUENCE IF NOT EXISTS account_number_seq START WITH 1000 INCREMENT BY 1;

CREATE TABLE IF NOT EXISTS accounts (
    account_number BIGINT PRIMARY KEY DEFAULT nextval('account_number_seq'),
    kind           TEXT NOT NULL CHECK (kind IN ('SAVINGS', 'CURRENT')),
    holder_name    TEXT NOT NULL,
    pin_hash       TEXT NOT NULL,
    balance_cents  BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
    privilege      TEXT NOT NULL CHECK (privilege IN ('SILVER', 'GOLD', 'PREMIUM')),
    owner_id       TEXT,
    active         BOOLEAN NOT NULL DEFAULT TRUE,
    activated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    closed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS savings_details (
    account_number BIGINT PRIMARY KEY REFERENCES accounts(account_number),
    date_of_birth  DATE NOT NULL,
    gender         TEXT NOT NULL CHECK (gender IN ('Male', 'Female', 'Others')),
    phone_number   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS current_details (
    account_number      BIGINT PRIMARY KEY REFERENCES accounts(account_number),
    company_name        TEXT NOT NULL,
    website             TEXT,
    registration_number TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS account_audit (
    id             BIGSERIAL PRIMARY KEY,
    account_number BIGINT NOT NULL,
    action         TEXT NOT NULL,
    before_json    JSONB,
    after_json     JSONB,
    at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_account_audit_account ON account_audit (account_number, at);

CREATE TABLE IF NOT EXISTS schema_info (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// TransactionsSchema is the transactions_db layout. Both tables are
// append-only; nothing ever updates or deletes a journal row.
const TransactionsSchema = `
CREATE TABLE IF NOT EXISTS fund_transfers (
    id           UUID PRIMARY KEY,
    from_account BIGINT NOT NULL,
    to_account   BIGINT NOT NULL,
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    mode         TEXT NOT NULL,
    at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fund_transfers_from ON fund_transfers (from_account, at);
CREATE INDEX IF NOT EXISTS idx_fund_transfers_to ON fund_transfers (to_account, at);

CREATE TABLE IF NOT EXISTS transaction_logging (
    id             UUID PRIMARY KEY,
    account_number BIGINT NOT NULL,
    amount_cents   BIGINT NOT NULL CHECK (amount_cents > 0),
    kind           TEXT NOT NULL CHECK (kind IN ('WITHDRAW', 'DEPOSIT', 'TRANSFER')),
    at             TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_txlog_account_at ON transaction_logging (account_number, at);

CREATE TABLE IF NOT EXISTS schema_info (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
