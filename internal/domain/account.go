package domain

// AccountType distinguishes asset accounts from liability/credit accounts.
// Balance assertions for liability accounts are asserted with the sign
// flipped.
type AccountType string

// Known account types.
const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
)
