package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "pokevault/pkg/domain"
	audit "pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/audit/store/memory"
	"pokevault/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	store  *memory.InMemoryStore
	userID id.UserID
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.userID = id.UserID(uuid.New())
}

func (s *PublisherSuite) emit(ctx context.Context, pub *Publisher, action audit.AuditEvent) error {
	return pub.Emit(ctx, audit.New(action, s.userID))
}

func (s *PublisherSuite) TestSyncAppendsInOrder() {
	pub := NewPublisher(s.store)
	defer pub.Close()

	for _, action := range []audit.AuditEvent{audit.EventUserRegistered, audit.EventFavoriteAdded, audit.EventLoggedOut} {
		s.Require().NoError(s.emit(context.Background(), pub, action))
	}

	s.Equal([]string{"user_registered", "favorite_added", "logged_out"}, s.store.Actions(s.userID))
}

func (s *PublisherSuite) TestAsyncDeliversEverythingByClose() {
	pub := NewPublisher(s.store, WithAsyncBuffer(32))
	for range 20 {
		s.Require().NoError(s.emit(context.Background(), pub, audit.EventFavoriteAdded))
	}
	pub.Close()
	pub.Close()

	s.Len(s.store.Actions(s.userID), 20)
}

func (s *PublisherSuite) TestAsyncFullBufferRejects() {
	block := make(chan struct{})
	sink := &blockingSink{release: block}
	pub := NewPublisher(sink, WithAsyncBuffer(1))

	// first event is taken by the drainer and parks in Append, the second fills the buffer
	s.Require().NoError(s.emit(context.Background(), pub, audit.EventLoggedIn))
	s.Require().Eventually(func() bool { return sink.started() }, time.Second, 5*time.Millisecond)
	s.Require().NoError(s.emit(context.Background(), pub, audit.EventLoggedIn))

	err := s.emit(context.Background(), pub, audit.EventLoggedIn)
	s.ErrorIs(err, ErrBufferFull)

	close(block)
	pub.Close()
	s.Equal(2, sink.count())
}

func (s *PublisherSuite) TestEmitAfterCloseIsRejected() {
	for name, pub := range map[string]*Publisher{
		"sync":  NewPublisher(s.store),
		"async": NewPublisher(s.store, WithAsyncBuffer(4)),
	} {
		s.Run(name, func() {
			pub.Close()
			s.NotPanics(func() {
				s.ErrorIs(s.emit(context.Background(), pub, audit.EventLoggedIn), ErrClosed)
			})
		})
	}
	s.Empty(s.store.Actions(s.userID))
}

func (s *PublisherSuite) TestConcurrentEmitAndClose() {
	pub := NewPublisher(s.store, WithAsyncBuffer(8))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				err := s.emit(context.Background(), pub, audit.EventFavoriteAdded)
				if err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrBufferFull) {
					s.Fail("unexpected emit error", err.Error())
				}
			}
		}()
	}
	pub.Close()
	wg.Wait()
}

func (s *PublisherSuite) TestSyncSurfacesSinkErrors() {
	pub := NewPublisher(failingSink{})
	err := s.emit(context.Background(), pub, audit.EventPasswordReset)
	s.ErrorContains(err, "sink down")
}

func (s *PublisherSuite) TestStampsMissingFields() {
	pub := NewPublisher(s.store)
	ctx := requestcontext.WithRequestID(context.Background(), "req-9")
	ctx = requestcontext.WithClientMetadata(ctx, "10.1.1.1", "ua")
	ctx = requestcontext.WithDevice(ctx, "Firefox on Linux")

	before := time.Now()
	s.Require().NoError(pub.Emit(ctx, audit.Event{UserID: s.userID, Action: string(audit.EventSessionSuperseded)}))

	events, err := pub.List(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("req-9", events[0].RequestID)
	s.Equal("10.1.1.1", events[0].ClientIP)
	s.Equal("Firefox on Linux", events[0].Device)
	s.Equal(audit.CategorySecurity, events[0].Category)
	s.False(events[0].Timestamp.Before(before))
}

func (s *PublisherSuite) TestKeepsCallerTimestamp() {
	pub := NewPublisher(s.store)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	event := audit.New(audit.EventLoggedIn, s.userID)
	event.Timestamp = at

	s.Require().NoError(pub.Emit(context.Background(), event))

	events, err := pub.List(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(at, events[0].Timestamp)
}

func (s *PublisherSuite) TestListNeedsListingSink() {
	pub := NewPublisher(failingSink{})
	_, err := pub.List(context.Background(), s.userID)
	s.Error(err)
}

type failingSink struct{}

func (failingSink) Append(context.Context, audit.Event) error { return errors.New("sink down") }

type blockingSink struct {
	release <-chan struct{}
	mu      sync.Mutex
	seen    int
}

func (b *blockingSink) Append(context.Context, audit.Event) error {
	b.mu.Lock()
	b.seen++
	b.mu.Unlock()
	<-b.release
	return nil
}

func (b *blockingSink) started() bool { return b.count() > 0 }

func (b *blockingSink) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}
