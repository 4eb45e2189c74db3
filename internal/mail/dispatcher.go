// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Dispatcher configuration.
const (
	// DefaultQueueSize is the buffered channel capacity for pending mail.
	DefaultQueueSize = 64

	// sendTimeout bounds a single delivery attempt including retries.
	sendTimeout = 30 * time.Second

	// maxRetries is the number of re-attempts after a failed send.
	maxRetries = 3

	// retryBase is the initial backoff between attempts.
	retryBase = 500 * time.Millisecond
)

// Dispatcher delivers mail asynchronously. Enqueue never blocks the caller
// and never reports delivery errors back: a message that still fails after
// the bounded retries is logged and counted, then dropped.
type Dispatcher struct {
	notifier  Notifier
	logger    *slog.Logger
	queue     chan Message
	onFailure func()

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher and starts its worker goroutine.
// onFailure is invoked once per permanently failed message and may be nil;
// the web wiring uses it to feed a Prometheus counter.
func NewDispatcher(notifier Notifier, logger *slog.Logger, onFailure func()) (*Dispatcher, error) {
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{
		notifier:  notifier,
		logger:    logger,
		queue:     make(chan Message, DefaultQueueSize),
		onFailure: onFailure,
	}

	d.wg.Add(1)
	go d.run()

	return d, nil
}

// Enqueue hands a message to the dispatcher. It never blocks: if the queue
// is full or the dispatcher is closed, the message is dropped and logged as
// a delivery failure.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.dropped(msg, "dispatcher closed")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.dropped(msg, "queue full")
	}
}

// Close stops accepting new messages and waits for queued mail to drain, or
// until ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return oops.Code("MAIL_DRAIN_TIMEOUT").
			With("operation", "drain mail queue").
			Wrap(ctx.Err())
	}
}

// run is the worker loop. It exits when the queue is closed and drained.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(msg)
	}
}

// deliver sends one message with bounded exponential backoff.
func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := d.notifier.Send(ctx, msg); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		d.dropped(msg, err.Error())
		return
	}

	d.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
}

// dropped records a permanently failed message. Delivery failures are never
// surfaced to the request that enqueued the mail.
func (d *Dispatcher) dropped(msg Message, reason string) {
	d.logger.Error("email delivery failed",
		"to", msg.To, "subject", msg.Subject, "reason", reason)
	if d.onFailure != nil {
		d.onFailure()
	}
}
