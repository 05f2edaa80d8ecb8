// Package events publishes paper discovery events to Kafka.
//
// # Event Types
//
//   - search.completed: an aggregated search finished; carries the query,
//     the sources consulted, the merged paper count and per-source counts
//     and errors.
//
// # Usage
//
// Build an event with the emitter and hand it to a publisher:
//
//	emitter := events.NewEmitter(events.EmitterConfig{})
//	event, err := emitter.SearchCompleted(sessionID, payload)
//	err = publisher.Publish(ctx, event)
//
// When Kafka is disabled the service uses NopPublisher. A Consumer reads the
// same topic back, which the papersearch CLI uses to follow searches.
package events
