package mirror

// TopicMessage is one message as returned by /api/v1/topics/{id}/messages.
// Message holds the base64 payload.
type TopicMessage struct {
	ConsensusTimestamp string     `json:"consensus_timestamp"`
	ChunkInfo          *ChunkInfo `json:"chunk_info,omitempty"`
	Message            string     `json:"message"`
	PayerAccountID     string     `json:"payer_account_id"`
	RunningHash        string     `json:"running_hash"`
	SequenceNumber     int64      `json:"sequence_number"`
	TopicID            string     `json:"topic_id"`
}

type ChunkInfo struct {
	Number int `json:"number,omitempty"`
	Total  int `json:"total,omitempty"`
}

// MessageQuery narrows a topic message listing. AfterSequence of zero
// starts from the first message.
type MessageQuery struct {
	AfterSequence int64
	Limit         int
	Order         string
	MaxPages      int
}

type messagesPage struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
	Messages []TopicMessage `json:"messages"`
}
