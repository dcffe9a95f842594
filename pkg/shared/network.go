package shared

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"
)

var mirrorBaseURLs = map[string]string{
	NetworkMainnet:    "https://mainnet-public.mirrornode.hedera.com",
	NetworkTestnet:    "https://testnet.mirrornode.hedera.com",
	NetworkPreviewnet: "https://previewnet.mirrornode.hedera.com",
}

// NormalizeNetwork lowercases network and defaults it to testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}
	if _, known := mirrorBaseURLs[normalized]; !known {
		return "", fmt.Errorf("unsupported network %q", network)
	}
	return normalized, nil
}

// MirrorBaseURL returns the public mirror node for an already normalized
// network. Unknown networks fall back to testnet.
func MirrorBaseURL(network string) string {
	if baseURL, known := mirrorBaseURLs[network]; known {
		return baseURL
	}
	return mirrorBaseURLs[NetworkTestnet]
}

func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}

	switch normalized {
	case NetworkMainnet:
		return hedera.ClientForMainnet(), nil
	case NetworkPreviewnet:
		return hedera.ClientForPreviewnet(), nil
	default:
		return hedera.ClientForTestnet(), nil
	}
}

// NewOperatorClient builds a client for config.Network with the operator
// account and key already set.
func NewOperatorClient(config OperatorConfig) (*hedera.Client, error) {
	client, err := NewHederaClient(config.Network)
	if err != nil {
		return nil, err
	}
	accountID, err := hedera.AccountIDFromString(config.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid operator account ID: %w", err)
	}
	privateKey, err := ParsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, err
	}
	client.SetOperator(accountID, privateKey)
	return client, nil
}
