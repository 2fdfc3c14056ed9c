package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pokevault/internal/auth/models"
	"pokevault/internal/auth/store/passwordreset"
	"pokevault/internal/auth/store/revocation"
	userstore "pokevault/internal/auth/store/user"
	jwttoken "pokevault/internal/jwt_token"
)

func newInMemoryService(t *testing.T) (*Service, *userstore.InMemoryUserStore, *revocation.InMemoryTRL) {
	t.Helper()
	users := userstore.New()
	trl := revocation.NewInMemoryTRL()
	svc := New(users, trl, passwordreset.NewInMemory(),
		jwttoken.NewJWTService("secret", "pokevault"),
		Config{TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost},
	)
	return svc, users, trl
}

func TestSingleSession_OnlyLatestLoginIsCurrent(t *testing.T) {
	ctx := context.Background()
	svc, users, trl := newInMemoryService(t)

	reg, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Misty", Email: "misty@cerulean.gym", Password: "Starmie12", PasswordConfirmation: "Starmie12",
	})
	require.NoError(t, err)

	results := []*models.TokenResult{reg}
	for range 5 {
		res, err := svc.Login(ctx, models.LoginRequest{Email: "misty@cerulean.gym", Password: "Starmie12"})
		require.NoError(t, err)
		require.NoError(t, res.RevocationErr)
		results = append(results, res)
	}

	latest := results[len(results)-1]
	current, ok, err := svc.CurrentSessionID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, latest.SessionID, current)

	for _, res := range results[:len(results)-1] {
		assert.NotEqual(t, current, res.SessionID)
		revoked, err := trl.IsRevoked(ctx, res.SessionID.String())
		require.NoError(t, err)
		assert.True(t, revoked, "superseded session %s should be revoked", res.SessionID)

		// superseded tokens still verify; only the session comparison rejects them
		_, err = svc.Verify(res.AccessToken)
		assert.NoError(t, err)
	}

	stored, err := users.FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentToken)
	assert.Equal(t, latest.AccessToken, *stored.CurrentToken)
}

func TestSingleSession_ConcurrentLoginsLeaveOneSession(t *testing.T) {
	ctx := context.Background()
	svc, _, trl := newInMemoryService(t)

	reg, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Brock", Email: "brock@pewter.gym", Password: "Onix1234", PasswordConfirmation: "Onix1234",
	})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	sessions := make(chan *models.TokenResult, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Login(ctx, models.LoginRequest{Email: "brock@pewter.gym", Password: "Onix1234"})
			if assert.NoError(t, err) {
				sessions <- res
			}
		}()
	}
	wg.Wait()
	close(sessions)

	current, ok, err := svc.CurrentSessionID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.True(t, ok)

	live := 0
	for res := range sessions {
		revoked, err := trl.IsRevoked(ctx, res.SessionID.String())
		require.NoError(t, err)
		if !revoked {
			live++
			assert.Equal(t, current, res.SessionID)
		}
	}
	assert.Equal(t, 1, live)
}

func TestLogout_ClearsOnlyCurrentSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInMemoryService(t)

	first, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Gary", Email: "gary@pallet.town", Password: "Eevee1234", PasswordConfirmation: "Eevee1234",
	})
	require.NoError(t, err)
	second, err := svc.Login(ctx, models.LoginRequest{Email: "gary@pallet.town", Password: "Eevee1234"})
	require.NoError(t, err)

	// logging out the superseded session keeps the newer one
	require.NoError(t, svc.Logout(ctx, first.User.ID, first.SessionID, first.AccessToken))
	current, ok, err := svc.CurrentSessionID(ctx, first.User.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.SessionID, current)

	require.NoError(t, svc.Logout(ctx, second.User.ID, second.SessionID, second.AccessToken))
	_, ok, err = svc.CurrentSessionID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
