// Package publisher forwards ledger events to external consumers.
//
// TopicPublisher submits every event as a message on a Hedera consensus
// topic, so the event log can later be replayed from a mirror node.
// StreamPublisher pushes the same payloads to a socket.io endpoint.
//
// Both implement ledger.EventSink. A ledger invokes its sinks while holding
// its write lock, so Emit never blocks on the network: it only enqueues, and
// a background worker started with Start does the I/O.
//
//	publisher, err := publisher.NewTopicPublisher(publisher.TopicConfig{
//		TopicID:   "0.0.9000",
//		Submitter: publisher.NewHederaSubmitter(client),
//	})
//	publisher.Start(ctx)
//	defer publisher.Stop()
package publisher
