package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	"github.com/rs/zerolog"
)

const (
	DefaultTokenName          = "AespaToken"
	DefaultTokenSymbol        = "AES"
	DefaultTokenInitialSupply = "70000000000000000000000000"
	DefaultTokenBlockReward   = "50"
)

// LedgerEnvConfig is the deployment described by TOKEN_* variables.
type LedgerEnvConfig struct {
	Ledger       ledger.Config
	Beneficiary  ledger.Address
	EventTopicID string
	Network      string
	LogLevel     zerolog.Level
}

// LedgerConfigFromEnv reads the token deployment parameters. TOKEN_OWNER is
// required; the remaining variables fall back to the defaults above.
func LedgerConfigFromEnv() (LedgerEnvConfig, error) {
	loadDotEnvIfPresent()

	network, err := NormalizeNetwork(firstNonEmptyEnv("HEDERA_NETWORK", "NETWORK"))
	if err != nil {
		return LedgerEnvConfig{}, err
	}
	logLevel, err := ParseLogLevel(firstNonEmptyEnv("LOG_LEVEL"))
	if err != nil {
		return LedgerEnvConfig{}, err
	}

	ownerRaw := firstNonEmptyEnv("TOKEN_OWNER", "HEDERA_ACCOUNT_ID", "OPERATOR_ID")
	if ownerRaw == "" {
		return LedgerEnvConfig{}, fmt.Errorf("TOKEN_OWNER is required")
	}
	owner, err := ledger.NormalizeAddress(ownerRaw)
	if err != nil {
		return LedgerEnvConfig{}, fmt.Errorf("TOKEN_OWNER: %w", err)
	}

	initialSupply, err := ledger.ParseAmount("TOKEN_INITIAL_SUPPLY", envOrDefault("TOKEN_INITIAL_SUPPLY", DefaultTokenInitialSupply))
	if err != nil {
		return LedgerEnvConfig{}, err
	}
	blockReward, err := ledger.ParseAmount("TOKEN_BLOCK_REWARD", envOrDefault("TOKEN_BLOCK_REWARD", DefaultTokenBlockReward))
	if err != nil {
		return LedgerEnvConfig{}, err
	}

	var beneficiary ledger.Address
	if raw := firstNonEmptyEnv("TOKEN_BENEFICIARY"); raw != "" {
		beneficiary, err = ledger.NormalizeAddress(raw)
		if err != nil {
			return LedgerEnvConfig{}, fmt.Errorf("TOKEN_BENEFICIARY: %w", err)
		}
	}

	config := LedgerEnvConfig{
		Ledger: ledger.Config{
			Name:          envOrDefault("TOKEN_NAME", DefaultTokenName),
			Symbol:        envOrDefault("TOKEN_SYMBOL", DefaultTokenSymbol),
			InitialSupply: initialSupply,
			BlockReward:   blockReward,
			Owner:         owner,
		},
		Beneficiary:  beneficiary,
		EventTopicID: firstNonEmptyEnv("TOKEN_EVENT_TOPIC_ID"),
		Network:      network,
		LogLevel:     logLevel,
	}
	if !beneficiary.IsZero() {
		config.Ledger.Beneficiary = ledger.StaticBeneficiary(beneficiary)
	}
	return config, nil
}

// ParseLogLevel maps LOG_LEVEL values onto zerolog levels. Empty means info.
func ParseLogLevel(raw string) (zerolog.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(trimmed)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

// NewLogger returns a console logger on stderr, or a JSON logger on out when
// out is not nil.
func NewLogger(level zerolog.Level, out io.Writer) zerolog.Logger {
	if out == nil {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func envOrDefault(key string, fallback string) string {
	if value := firstNonEmptyEnv(key); value != "" {
		return value
	}
	return fallback
}
