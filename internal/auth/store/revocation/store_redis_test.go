package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"pokevault/internal/auth/metrics"
)

type RedisTRLSuite struct {
	suite.Suite
	mr  *miniredis.Miniredis
	trl *RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	s.trl = NewRedisTRL(client)
}

func (s *RedisTRLSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	s.Require().NoError(s.trl.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err := s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)
	s.True(s.mr.Exists(revokedTokenKeyPrefix + "jti-1"))
	s.Equal(time.Minute, s.mr.TTL(revokedTokenKeyPrefix+"jti-1"))
}

func (s *RedisTRLSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.trl.RevokeToken(ctx, "jti-2", time.Second))
	s.mr.FastForward(2 * time.Second)

	revoked, err := s.trl.IsRevoked(ctx, "jti-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisTRLSuite) TestUnavailable() {
	s.mr.Close()
	_, err := s.trl.IsRevoked(context.Background(), "jti-3")
	s.Error(err)
}

func (s *RedisTRLSuite) TestEmptyJTI() {
	revoked, err := s.trl.IsRevoked(context.Background(), "")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisTRLSuite) TestIsRevokedIsTimedOnTheGivenRegistry() {
	reg := prometheus.NewRegistry()
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	trl := NewRedisTRL(client, WithMetrics(metrics.New(reg)))

	for _, jti := range []string{"jti-3", "jti-4"} {
		_, err := trl.IsRevoked(context.Background(), jti)
		s.Require().NoError(err)
	}

	families, err := reg.Gather()
	s.Require().NoError(err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "pokevault_is_token_revoked_duration_ms" {
			found = true
			s.EqualValues(2, mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	s.True(found)
}
