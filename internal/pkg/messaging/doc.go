// Package messaging publishes and consumes events over a broker chosen by
// configuration: NATS, Kafka, or an in-process broker for single-node setups
// and tests.
//
// Handlers see a broker independent Message. A handler that returns nil
// acknowledges the message; an error leaves it to the broker's redelivery
// semantics. The correlation id of the publishing request travels in the
// X-Correlation-ID header and is restored into the handler context.
package messaging
