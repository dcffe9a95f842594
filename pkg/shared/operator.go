package shared

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// OperatorConfig holds the account that pays for topic submissions.
type OperatorConfig struct {
	AccountID  string
	PrivateKey string
	Network    string
}

var (
	operatorAccountKeys = []string{"HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID", "ACCOUNT_ID", "OPERATOR_ID"}
	operatorKeyKeys     = []string{"HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY", "PRIVATE_KEY", "OPERATOR_KEY"}
)

// OperatorConfigFromEnv reads operator credentials. Network scoped variables
// such as MAINNET_HEDERA_ACCOUNT_ID take precedence over the generic ones.
func OperatorConfigFromEnv() (OperatorConfig, error) {
	loadDotEnvIfPresent()

	network, err := NormalizeNetwork(firstNonEmptyEnv("HEDERA_NETWORK", "NETWORK"))
	if err != nil {
		return OperatorConfig{}, err
	}

	accountID := firstNonEmptyEnv(scopedKeys(network, operatorAccountKeys)...)
	if accountID == "" {
		accountID = firstNonEmptyEnv(operatorAccountKeys...)
	}
	privateKey := firstNonEmptyEnv(scopedKeys(network, operatorKeyKeys)...)
	if privateKey == "" {
		privateKey = firstNonEmptyEnv(operatorKeyKeys...)
	}

	if accountID == "" {
		return OperatorConfig{}, fmt.Errorf("HEDERA_ACCOUNT_ID is required")
	}
	if privateKey == "" {
		return OperatorConfig{}, fmt.Errorf("HEDERA_PRIVATE_KEY is required")
	}

	return OperatorConfig{
		AccountID:  accountID,
		PrivateKey: privateKey,
		Network:    network,
	}, nil
}

// scopedKeys prefixes keys with the network name, skipping the bare
// ACCOUNT_ID and PRIVATE_KEY forms.
func scopedKeys(network string, keys []string) []string {
	prefix := strings.ToUpper(network) + "_"
	scoped := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "ACCOUNT_ID" || key == "PRIVATE_KEY" {
			continue
		}
		scoped = append(scoped, prefix+key)
	}
	return scoped
}

// ParsePrivateKey accepts ED25519, ECDSA or DER encoded Hedera keys.
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	ed25519Key, edErr := hedera.PrivateKeyFromStringEd25519(candidate)
	if edErr == nil {
		return ed25519Key, nil
	}
	ecdsaKey, ecdsaErr := hedera.PrivateKeyFromStringECDSA(candidate)
	if ecdsaErr == nil {
		return ecdsaKey, nil
	}
	genericKey, genericErr := hedera.PrivateKeyFromString(candidate)
	if genericErr == nil {
		return genericKey, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf(
		"failed to parse private key as ED25519 (%v), ECDSA (%v), or generic (%v)",
		edErr,
		ecdsaErr,
		genericErr,
	)
}
