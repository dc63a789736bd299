package enums

import "fmt"

// CreditScope distinguishes the team pool from a person's own balance.
type CreditScope string

const (
	CreditScopeTeam   CreditScope = "team"
	CreditScopePerson CreditScope = "person"
)

var validCreditScopes = []CreditScope{
	CreditScopeTeam,
	CreditScopePerson,
}

// IsValid reports whether the value is a known CreditScope.
func (s CreditScope) IsValid() bool {
	for _, candidate := range validCreditScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCreditScope converts raw input into a CreditScope.
func ParseCreditScope(value string) (CreditScope, error) {
	for _, candidate := range validCreditScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit scope %q", value)
}

// CreditTxnType maps to the credit_txn_type enum in Postgres.
type CreditTxnType string

const (
	CreditTxnPurchase    CreditTxnType = "purchase"
	CreditTxnTransferIn  CreditTxnType = "transfer_in"
	CreditTxnTransferOut CreditTxnType = "transfer_out"
	CreditTxnConsume     CreditTxnType = "consume"
	CreditTxnRefund      CreditTxnType = "refund"
	CreditTxnAdjust      CreditTxnType = "adjust"
)

var validCreditTxnTypes = []CreditTxnType{
	CreditTxnPurchase,
	CreditTxnTransferIn,
	CreditTxnTransferOut,
	CreditTxnConsume,
	CreditTxnRefund,
	CreditTxnAdjust,
}

// IsValid reports whether the value matches the canonical credit txn enum.
func (t CreditTxnType) IsValid() bool {
	for _, candidate := range validCreditTxnTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsDebit reports whether rows of this type must carry a negative amount.
func (t CreditTxnType) IsDebit() bool {
	return t == CreditTxnTransferOut || t == CreditTxnConsume
}

// ParseCreditTxnType converts raw input into CreditTxnType.
func ParseCreditTxnType(value string) (CreditTxnType, error) {
	for _, candidate := range validCreditTxnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit txn type %q", value)
}
