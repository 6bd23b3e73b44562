// Package broker abstracts topic-based, at-least-once message delivery with
// consumer-group semantics behind a minimal publish/subscribe/ack/nack
// surface, so the pipeline logic stays broker-agnostic.
package broker

import "time"

// Publisher publishes a payload to a topic.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// HandlerFunc processes a single delivery. The handler owns the delivery's
// fate: it must call exactly one of Ack or Nack.
type HandlerFunc func(d *Delivery)

// Subscriber attaches a consumer group (channel) to a topic. Each message
// published to the topic is delivered to exactly one live member of each
// channel; a delivery that is neither acked nor nacked becomes re-claimable
// after the broker's visibility timeout.
type Subscriber interface {
	Subscribe(topic, channel string, concurrency int, h HandlerFunc) error
}

// Broker is the full contract the pipeline depends on.
type Broker interface {
	Publisher
	Subscriber
	Stop()
}

// Delivery is a single received message together with its ack handle.
type Delivery struct {
	Body     []byte
	Attempts uint16

	ack  func()
	nack func(delay time.Duration)
}

func NewDelivery(body []byte, attempts uint16, ack func(), nack func(time.Duration)) *Delivery {
	return &Delivery{Body: body, Attempts: attempts, ack: ack, nack: nack}
}

// Ack marks the delivery as successfully processed.
func (d *Delivery) Ack() {
	if d.ack != nil {
		d.ack()
	}
}

// Nack schedules the delivery for redelivery after the given delay. A zero
// delay requeues immediately.
func (d *Delivery) Nack(delay time.Duration) {
	if d.nack != nil {
		d.nack(delay)
	}
}
