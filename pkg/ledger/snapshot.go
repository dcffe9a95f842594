package ledger

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot returns a deep copy of the ledger state.
func (ledger *Ledger) Snapshot() Snapshot {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()

	holders := ledger.holdersLocked()
	balances := make([]BalanceEntry, 0, len(holders))
	for _, address := range holders {
		balances = append(balances, BalanceEntry{
			Address: address,
			Amount:  cloneAmount(ledger.balances[address]),
		})
	}

	return Snapshot{
		Name:        ledger.name,
		Symbol:      ledger.symbol,
		Decimals:    ledger.decimals,
		Owner:       ledger.owner,
		TotalSupply: cloneAmount(ledger.totalSupply),
		BlockReward: cloneAmount(ledger.blockReward),
		Sequence:    ledger.sequence,
		Balances:    balances,
	}
}

// EncodeSnapshot serializes a snapshot as deterministic CBOR compressed with
// brotli.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	encMode, err := cbor.EncOptions{Sort: cbor.SortCoreDeterministic}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot encoder: %w", err)
	}
	raw, err := encMode.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	var buffer bytes.Buffer
	writer := brotli.NewWriterLevel(&buffer, brotli.BestCompression)
	if _, err := writer.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return buffer.Bytes(), nil
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := cbor.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Restore rebuilds a ledger from a snapshot. The restored ledger continues the
// event sequence of the snapshot and emits no deploy event.
func Restore(snapshot Snapshot, options Options) (*Ledger, error) {
	name := strings.TrimSpace(snapshot.Name)
	symbol := strings.TrimSpace(snapshot.Symbol)
	if err := validateMetadata(name, symbol); err != nil {
		return nil, err
	}
	owner, err := NormalizeAddress(string(snapshot.Owner))
	if err != nil {
		return nil, err
	}
	if err := validateAmount("total supply", snapshot.TotalSupply); err != nil {
		return nil, err
	}
	if err := validateAmount("block reward", snapshot.BlockReward); err != nil {
		return nil, err
	}

	ledger := newLedger(options)
	ledger.name = name
	ledger.symbol = symbol
	ledger.decimals = snapshot.Decimals
	ledger.owner = owner
	ledger.totalSupply = cloneAmount(snapshot.TotalSupply)
	ledger.blockReward = cloneAmount(snapshot.BlockReward)
	ledger.sequence = snapshot.Sequence

	sum := new(big.Int)
	for _, entry := range snapshot.Balances {
		address, err := NormalizeAddress(string(entry.Address))
		if err != nil {
			return nil, err
		}
		if err := validateAmount(fmt.Sprintf("balance of %s", address), entry.Amount); err != nil {
			return nil, err
		}
		if _, duplicate := ledger.balances[address]; duplicate {
			return nil, NewInvalidArgumentError("balances", fmt.Sprintf("duplicate entry for %s", address))
		}
		if entry.Amount.Sign() == 0 {
			continue
		}
		ledger.balances[address] = cloneAmount(entry.Amount)
		sum.Add(sum, entry.Amount)
	}

	if sum.Cmp(ledger.totalSupply) != 0 {
		return nil, NewInvalidArgumentError(
			"total supply",
			fmt.Sprintf("balances sum to %s but supply is %s", sum.String(), ledger.totalSupply.String()),
		)
	}

	ledger.logger.Info().
		Str("symbol", symbol).
		Uint64("sequence", ledger.sequence).
		Int("holders", len(ledger.balances)).
		Msg("ledger restored")
	return ledger, nil
}
