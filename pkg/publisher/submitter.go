package publisher

import (
	"context"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// SubmitResult identifies the consensus message created for one event.
type SubmitResult struct {
	TransactionID  string
	SequenceNumber uint64
}

// Submitter executes a prepared topic message transaction.
type Submitter interface {
	Submit(ctx context.Context, transaction *hedera.TopicMessageSubmitTransaction) (SubmitResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, transaction *hedera.TopicMessageSubmitTransaction) (SubmitResult, error)

func (fn SubmitterFunc) Submit(ctx context.Context, transaction *hedera.TopicMessageSubmitTransaction) (SubmitResult, error) {
	return fn(ctx, transaction)
}

// HederaSubmitter submits through an operator-configured Hedera client and
// waits for the receipt.
type HederaSubmitter struct {
	client *hedera.Client
}

func NewHederaSubmitter(client *hedera.Client) *HederaSubmitter {
	return &HederaSubmitter{client: client}
}

func (submitter *HederaSubmitter) Submit(
	ctx context.Context,
	transaction *hedera.TopicMessageSubmitTransaction,
) (SubmitResult, error) {
	if submitter.client == nil {
		return SubmitResult{}, fmt.Errorf("hedera client is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, err
	}

	response, err := transaction.Execute(submitter.client)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to execute topic message transaction: %w", err)
	}
	receipt, err := response.GetReceipt(submitter.client)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to get topic message receipt: %w", err)
	}

	return SubmitResult{
		TransactionID:  response.TransactionID.String(),
		SequenceNumber: receipt.TopicSequenceNumber,
	}, nil
}
