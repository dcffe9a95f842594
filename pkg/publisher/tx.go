package publisher

import (
	"fmt"
	"strings"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// BuildEventSubmitTx builds the topic message transaction carrying event.
func BuildEventSubmitTx(topicID string, event ledger.Event, memo string) (*hedera.TopicMessageSubmitTransaction, error) {
	parsedTopicID, err := parseTopicID(topicID)
	if err != nil {
		return nil, err
	}
	payload, err := ledger.BuildEventPayload(event)
	if err != nil {
		return nil, err
	}
	return buildPayloadSubmitTx(parsedTopicID, payload, memo), nil
}

func buildPayloadSubmitTx(topicID hedera.TopicID, payload []byte, memo string) *hedera.TopicMessageSubmitTransaction {
	transaction := hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(topicID).
		SetMessage(payload)

	if trimmedMemo := strings.TrimSpace(memo); trimmedMemo != "" {
		transaction.SetTransactionMemo(trimmedMemo)
	}
	return transaction
}

func parseTopicID(raw string) (hedera.TopicID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return hedera.TopicID{}, fmt.Errorf("topic ID is required")
	}
	topicID, err := hedera.TopicIDFromString(trimmed)
	if err != nil {
		return hedera.TopicID{}, fmt.Errorf("invalid topic ID: %w", err)
	}
	return topicID, nil
}
