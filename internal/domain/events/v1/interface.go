package eventsv1

// Publisher is the emission side of the event boundary. Publish must
// never block the matching loop: a slow downstream consumer loses
// events rather than stalling matching.
type Publisher interface {
	Publish(event Event)
}

// Stream is the full event boundary handed to external collaborators.
// Subscribe returns an ordered channel of events plus a cancel func
// that detaches the subscriber and closes the channel.
type Stream interface {
	Publisher
	Subscribe() (<-chan Event, func())
}
