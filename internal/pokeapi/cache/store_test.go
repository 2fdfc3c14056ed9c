package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("expected hit, got %q %v %v", val, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("entry should expire at its ttl")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", s.Len())
	}
}

type RedisStoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	s.store = NewRedisStore(client)
}

func (s *RedisStoreSuite) TestRoundTripAndTTL() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "pokeapi:detail:pikachu", []byte(`{"id":25}`), 2*time.Hour))

	val, ok, err := s.store.Get(ctx, "pokeapi:detail:pikachu")
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(`{"id":25}`, string(val))
	s.Equal(2*time.Hour, s.mr.TTL("pokeapi:detail:pikachu"))

	s.mr.FastForward(2 * time.Hour)
	_, ok, err = s.store.Get(ctx, "pokeapi:detail:pikachu")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestMissIsNotAnError() {
	_, ok, err := s.store.Get(context.Background(), "absent")
	s.NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestUnavailableRedisReturnsError() {
	s.mr.Close()
	_, _, err := s.store.Get(context.Background(), "k")
	s.Error(err)
}
