package broker

import (
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker honoring the same contract as the NSQ
// adapter: at-least-once delivery, one delivery per channel per message, and
// Nack-with-delay redelivery with an incremented attempt count. Used by tests
// and single-process development runs.
type MemoryBroker struct {
	mu        sync.Mutex
	subs      map[string]map[string]HandlerFunc
	published map[string][][]byte
	wg        sync.WaitGroup
	stopped   bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs:      make(map[string]map[string]HandlerFunc),
		published: make(map[string][][]byte),
	}
}

func (b *MemoryBroker) Publish(topic string, body []byte) error {
	b.mu.Lock()
	cp := make([]byte, len(body))
	copy(cp, body)
	b.published[topic] = append(b.published[topic], cp)
	handlers := make([]HandlerFunc, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.deliver(h, cp, 1)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(topic, channel string, concurrency int, h HandlerFunc) error {
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]HandlerFunc)
	}
	b.subs[topic][channel] = h
	backlog := make([][]byte, len(b.published[topic]))
	copy(backlog, b.published[topic])
	b.mu.Unlock()

	// Replay retained messages so subscription order does not matter, as with
	// a durable topic.
	for _, body := range backlog {
		b.deliver(h, body, 1)
	}
	return nil
}

func (b *MemoryBroker) deliver(h HandlerFunc, body []byte, attempts uint16) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		h(NewDelivery(body, attempts,
			func() {},
			func(delay time.Duration) {
				time.AfterFunc(delay, func() {
					b.deliver(h, body, attempts+1)
				})
			},
		))
	}()
}

// Published returns the bodies published to a topic, in order. Test hook.
func (b *MemoryBroker) Published(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.published[topic]))
	copy(out, b.published[topic])
	return out
}

// Wait blocks until all in-flight deliveries have returned.
func (b *MemoryBroker) Wait() {
	b.wg.Wait()
}

func (b *MemoryBroker) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.wg.Wait()
}
