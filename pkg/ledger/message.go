package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventMessage is the JSON wire form of an Event.
type EventMessage struct {
	Protocol  string `json:"p"`
	Operation string `json:"op"`
	Sequence  uint64 `json:"seq"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Amount    string `json:"amt"`
}

// NewEventMessage converts an event to its wire form.
func NewEventMessage(event Event) EventMessage {
	return EventMessage{
		Protocol:  ProtocolID,
		Operation: event.Kind,
		Sequence:  event.Sequence,
		From:      string(event.From),
		To:        string(event.To),
		Amount:    cloneAmount(event.Amount).String(),
	}
}

// NormalizeEventMessage normalizes message fields for deterministic validation.
func NormalizeEventMessage(message EventMessage) (EventMessage, error) {
	normalized := message
	normalized.Protocol = strings.ToLower(strings.TrimSpace(message.Protocol))
	normalized.Operation = strings.ToLower(strings.TrimSpace(message.Operation))
	normalized.Amount = strings.TrimSpace(message.Amount)

	if strings.TrimSpace(message.From) != "" {
		from, err := NormalizeAddress(message.From)
		if err != nil {
			return normalized, err
		}
		normalized.From = string(from)
	}
	if strings.TrimSpace(message.To) != "" {
		to, err := NormalizeAddress(message.To)
		if err != nil {
			return normalized, err
		}
		normalized.To = string(to)
	}

	return normalized, nil
}

// ValidateEventMessage checks the protocol, operation and the fields each
// operation requires.
func ValidateEventMessage(message EventMessage) error {
	normalized, err := NormalizeEventMessage(message)
	if err != nil {
		return err
	}

	if normalized.Protocol != ProtocolID {
		return NewInvalidArgumentError("p", fmt.Sprintf("must be %s", ProtocolID))
	}
	if normalized.Sequence == 0 {
		return NewInvalidArgumentError("seq", "must be positive")
	}
	if _, err := ParseAmount("amt", normalized.Amount); err != nil {
		return err
	}

	requireFrom, requireTo := false, false
	switch normalized.Operation {
	case EventDeploy, EventMint, EventMinerReward:
		requireTo = true
	case EventTransfer:
		requireFrom, requireTo = true, true
	case EventBurn:
		requireFrom = true
	case EventBlockRewardSet:
	default:
		return NewInvalidArgumentError("op", "must be one of deploy|transfer|mint|burn|block_reward_set|miner_reward")
	}

	if requireFrom && normalized.From == "" {
		return NewInvalidArgumentError("from", fmt.Sprintf("required for %s", normalized.Operation))
	}
	if requireTo && normalized.To == "" {
		return NewInvalidArgumentError("to", fmt.Sprintf("required for %s", normalized.Operation))
	}
	return nil
}

// BuildEventPayload validates and serializes an event.
func BuildEventPayload(event Event) ([]byte, error) {
	normalized, err := NormalizeEventMessage(NewEventMessage(event))
	if err != nil {
		return nil, err
	}
	if err := ValidateEventMessage(normalized); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger event: %w", err)
	}
	return payload, nil
}

// ParseEventBytes decodes and validates an event payload.
func ParseEventBytes(payload []byte) (Event, error) {
	var message EventMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return Event{}, fmt.Errorf("failed to decode ledger event: %w", err)
	}

	normalized, err := NormalizeEventMessage(message)
	if err != nil {
		return Event{}, err
	}
	if err := ValidateEventMessage(normalized); err != nil {
		return Event{}, err
	}

	amount, err := ParseAmount("amt", normalized.Amount)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Sequence: normalized.Sequence,
		Kind:     normalized.Operation,
		From:     Address(normalized.From),
		To:       Address(normalized.To),
		Amount:   amount,
	}, nil
}
