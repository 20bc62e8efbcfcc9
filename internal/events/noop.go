package events

import "context"

// NoopPublisher discards every envelope. It is used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Envelope) error { return nil }

func (NoopPublisher) Close() error { return nil }
