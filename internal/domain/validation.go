package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// ValidateCurrency checks that code names a known currency. Lookup is
// case-insensitive; the code is matched against the currency table after
// trimming and uppercasing.
func ValidateCurrency(code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" || money.GetCurrency(normalized) == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

// ValidateAccountName checks that name is a colon-delimited hierarchical
// account path with no empty segments.
func ValidateAccountName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}
	for _, segment := range strings.Split(name, ":") {
		if strings.TrimSpace(segment) == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidAccountName, name)
		}
	}
	return nil
}
