package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "pokevault/pkg/domain"
)

func TestAccessors(t *testing.T) {
	t.Run("zero values when unset", func(t *testing.T) {
		ctx := context.Background()
		assert.True(t, UserID(ctx).IsNil())
		assert.True(t, SessionID(ctx).IsNil())
		assert.Empty(t, RawToken(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("round trips injected values", func(t *testing.T) {
		userID := id.NewUserID()
		sessionID := id.NewSessionID()
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		ctx := WithUserID(context.Background(), userID)
		ctx = WithSessionID(ctx, sessionID)
		ctx = WithRawToken(ctx, "tok")
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8")
		ctx = WithTime(ctx, fixed)

		assert.Equal(t, userID, UserID(ctx))
		assert.Equal(t, sessionID, SessionID(ctx))
		assert.Equal(t, "tok", RawToken(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "10.0.0.1", ClientIP(ctx))
		assert.Equal(t, "curl/8", UserAgent(ctx))
		assert.Equal(t, fixed, Now(ctx))
	})
}
