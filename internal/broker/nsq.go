package broker

import (
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"
)

// NSQBroker implements Broker on top of nsqd. Client-side retry limits are
// disabled; the retry policy belongs to the pipeline, which drives redelivery
// through Nack delays and the task store's attempt count.
type NSQBroker struct {
	producer  *nsq.Producer
	lookupd   string
	consumers []*nsq.Consumer
}

func NewNSQBroker(producer *nsq.Producer, lookupdAddr string) *NSQBroker {
	return &NSQBroker{producer: producer, lookupd: lookupdAddr}
}

func (b *NSQBroker) Publish(topic string, body []byte) error {
	return b.producer.Publish(topic, body)
}

func (b *NSQBroker) Subscribe(topic, channel string, concurrency int, h HandlerFunc) error {
	cfg := nsq.NewConfig()
	// 0 means unlimited; exhaustion is decided by the pipeline, not the client.
	cfg.MaxAttempts = 0

	consumer, err := nsq.NewConsumer(topic, channel, cfg)
	if err != nil {
		return err
	}

	if concurrency < 1 {
		concurrency = 1
	}

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		h(NewDelivery(m.Body, m.Attempts,
			m.Finish,
			func(delay time.Duration) { m.RequeueWithoutBackoff(delay) },
		))
		return nil
	}), concurrency)

	if err := consumer.ConnectToNSQLookupd(b.lookupd); err != nil {
		return err
	}

	b.consumers = append(b.consumers, consumer)
	slog.Info("subscribed", "topic", topic, "channel", channel, "concurrency", concurrency)
	return nil
}

func (b *NSQBroker) Stop() {
	for _, c := range b.consumers {
		c.Stop()
	}
	if b.producer != nil {
		b.producer.Stop()
	}
}
