package events

// Subscriber receives change envelopes from the event bus.
type Subscriber interface {
	// Subscribe delivers decoded envelopes on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(subject string) (<-chan Envelope, func(), error)
	Close() error
}

var _ Subscriber = (*NATSSubscriber)(nil)
var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = NoopPublisher{}
