package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pokevault/pkg/email"
)

var (
	ErrQueueFull = errors.New("mail queue full")
	ErrClosed    = errors.New("mail sender closed")
)

// AsyncSender queues messages for a single worker so callers return before
// the relay answers.
type AsyncSender struct {
	next   Sender
	logger *slog.Logger
	queue  chan Message
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewAsyncSender(next Sender, size int, logger *slog.Logger) *AsyncSender {
	if size <= 0 {
		size = 1
	}
	s := &AsyncSender{next: next, logger: logger, queue: make(chan Message, size)}
	s.wg.Add(1)
	go s.work()
	return s
}

func (s *AsyncSender) work() {
	defer s.wg.Done()
	for msg := range s.queue {
		if err := s.next.Send(context.Background(), msg); err != nil {
			s.logger.Error("failed to send mail", "error", err, "to", email.Mask(msg.To), "subject", msg.Subject)
		}
	}
}

// Send enqueues msg. It never waits on the underlying sender.
func (s *AsyncSender) Send(ctx context.Context, msg Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close delivers what is queued and stops the worker.
func (s *AsyncSender) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		s.wg.Wait()
	})
}
