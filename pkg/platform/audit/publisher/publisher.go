package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "pokevault/pkg/domain"
	audit "pokevault/pkg/platform/audit"
	"pokevault/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit once Close has been called.
var ErrClosed = errors.New("audit publisher closed")

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, event audit.Event) error
}

// Lister is implemented by sinks that can read events back.
type Lister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

// Publisher stamps events and hands them to a Sink, either inline or through
// a bounded buffer drained by one goroutine.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.sink.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to append audit event", "error", err, "action", event.Action)
		}
	}
}

// Emit records event. Missing timestamp and request metadata are filled from ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.buffer == nil {
		return p.sink.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// List reads events back when the sink supports it.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	lister, ok := p.sink.(Lister)
	if !ok {
		return nil, errors.New("audit sink does not support listing")
	}
	return lister.ListByUser(ctx, userID)
}

// Close drains any buffered events. Later Emit calls return ErrClosed.
func (p *Publisher) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		if p.buffer != nil {
			close(p.buffer)
		}
		p.mu.Unlock()
		p.wg.Wait()
	})
}
