//go:build integration

package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "pokevault/pkg/domain"
	audit "pokevault/pkg/platform/audit"
	"pokevault/pkg/testutil/containers"
)

func TestKafkaSink_ProducesEvent(t *testing.T) {
	brokers := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	s, err := NewKafkaSink(ctx, brokers, topic, slog.Default())
	require.NoError(t, err)
	defer s.Close()

	userID := id.UserID(uuid.New())
	event := audit.New(audit.EventLoggedIn, userID)
	event.Timestamp = time.Now().UTC()
	require.NoError(t, s.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, userID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, string(audit.EventLoggedIn), got.Action)
	assert.Equal(t, audit.CategoryOperations, got.Category)
}

func TestEnsureTopic_Idempotent(t *testing.T) {
	brokers := containers.NewRedpandaContainer(t)
	ctx := context.Background()

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	require.NoError(t, err)
	defer client.Close()
	adm := kadm.NewClient(client)

	require.NoError(t, EnsureTopic(ctx, adm, "audit-idem"))
	require.NoError(t, EnsureTopic(ctx, adm, "audit-idem"))
}
