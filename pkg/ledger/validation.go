package ledger

import (
	"fmt"
	"math/big"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// NormalizeAddress trims the identifier, drops any checksum suffix and
// returns the canonical shard.realm.num form.
func NormalizeAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", NewInvalidArgumentError("address", "address is required")
	}

	accountID, err := hedera.AccountIDFromString(trimmed)
	if err != nil {
		return "", NewInvalidArgumentError("address", fmt.Sprintf("invalid account format %q", raw))
	}

	return Address(accountID.String()), nil
}

// ParseAmount parses a non-negative base-10 amount.
func ParseAmount(field string, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if !amountRegex.MatchString(trimmed) {
		return nil, NewInvalidArgumentError(field, fmt.Sprintf("invalid number format %q", value))
	}

	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, NewInvalidArgumentError(field, fmt.Sprintf("invalid number format %q", value))
	}
	return parsed, nil
}

func validateAmount(field string, amount *big.Int) error {
	if amount == nil {
		return NewInvalidArgumentError(field, "amount is required")
	}
	if amount.Sign() < 0 {
		return NewInvalidArgumentError(field, fmt.Sprintf("must be non-negative, got %s", amount.String()))
	}
	return nil
}

func validateMetadata(name string, symbol string) error {
	if name == "" || len(name) > MaxNameLength {
		return NewInvalidArgumentError("name", fmt.Sprintf("name is required and must be <= %d characters", MaxNameLength))
	}
	if symbol == "" || len(symbol) > MaxSymbolLength {
		return NewInvalidArgumentError("symbol", fmt.Sprintf("symbol is required and must be <= %d characters", MaxSymbolLength))
	}
	return nil
}

func cloneAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(amount)
}
