package notify

import (
	"context"
	"sync"
	"time"

	"retail-backend/internal/metrics"

	"go.uber.org/zap"
)

type Message struct {
	Phone string
	Text  string
}

// Dispatcher delivers messages on a background worker. Enqueue never blocks
// the caller: a full queue drops the message and logs it.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sender Sender, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, queueSize),
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Enqueue(msgs ...Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("SMS dropped, dispatcher closed", zap.Int("count", len(msgs)))
		return
	}

	for _, m := range msgs {
		if m.Phone == "" {
			d.log.Warn("SMS dropped, no recipient", zap.String("message", m.Text))
			metrics.SMSDeliveries.WithLabelValues("dropped").Inc()
			continue
		}
		select {
		case d.queue <- m:
		default:
			d.log.Warn("SMS dropped, queue full", zap.String("to", m.Phone))
			metrics.SMSDeliveries.WithLabelValues("dropped").Inc()
		}
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sender.Send(ctx, m.Phone, m.Text)
		cancel()

		if err != nil {
			d.log.Error("SMS delivery failed", zap.String("to", m.Phone), zap.Error(err))
			metrics.SMSDeliveries.WithLabelValues("failed").Inc()
			continue
		}
		metrics.SMSDeliveries.WithLabelValues("sent").Inc()
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}
