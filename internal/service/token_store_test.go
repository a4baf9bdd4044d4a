package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestTokenStore(t *testing.T, records ...*domain.TokenRecord) (*tokenStore, *testutil.TokenRepo, *testutil.TokenIssuer) {
	t.Helper()
	repo := testutil.NewTokenRepo(records...)
	issuer := &testutil.TokenIssuer{}
	store := NewTokenStore(repo, issuer, zaptest.NewLogger(t), nil).(*tokenStore)
	return store, repo, issuer
}

func expiredRecord(userID string) *domain.TokenRecord {
	return &domain.TokenRecord{
		UserID:       userID,
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
}

func TestSaveTokenComputesExpiry(t *testing.T) {
	store, repo, _ := newTestTokenStore(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	record, err := store.SaveToken(context.Background(), "u1", "access", "refresh", 3600)
	require.NoError(t, err)

	assert.Equal(t, now.Add(time.Hour), record.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), record.ExpiresAtMillis())

	stored, ok := repo.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "access", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken)
}

func TestSaveTokenOverwritesPreviousPair(t *testing.T) {
	store, repo, _ := newTestTokenStore(t)
	ctx := context.Background()

	_, err := store.SaveToken(ctx, "u1", "first", "first-refresh", 60)
	require.NoError(t, err)
	_, err = store.SaveToken(ctx, "u1", "second", "second-refresh", 60)
	require.NoError(t, err)

	assert.Len(t, repo.Tokens, 1)
	stored, _ := repo.Get("u1")
	assert.Equal(t, "second", stored.AccessToken)
}

func TestGetLatestToken(t *testing.T) {
	t.Run("valid token is returned without refresh", func(t *testing.T) {
		store, _, issuer := newTestTokenStore(t, &domain.TokenRecord{
			UserID:       "u1",
			AccessToken:  "live-access",
			RefreshToken: "live-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		})

		record, err := store.GetLatestToken(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "live-access", record.AccessToken)
		assert.Equal(t, 0, issuer.RefreshCalls())
	})

	t.Run("expired token is refreshed inline", func(t *testing.T) {
		store, repo, issuer := newTestTokenStore(t, expiredRecord("u1"))

		record, err := store.GetLatestToken(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "refreshed-access", record.AccessToken)
		assert.True(t, record.ExpiresAt.After(time.Now()))
		assert.Equal(t, 1, issuer.RefreshCalls())

		stored, _ := repo.Get("u1")
		assert.Equal(t, "refreshed-refresh", stored.RefreshToken)
	})

	t.Run("missing token", func(t *testing.T) {
		store, _, _ := newTestTokenStore(t)

		_, err := store.GetLatestToken(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNoValidToken)
	})

	t.Run("repository failure is not reported as missing token", func(t *testing.T) {
		store, repo, _ := newTestTokenStore(t)
		repo.GetErr = errors.New("connection reset")

		_, err := store.GetLatestToken(context.Background(), "u1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoValidToken)
	})
}

func TestGetLatestTokenRejectedRefreshDeletesRecord(t *testing.T) {
	for _, code := range []string{"invalid_grant", "invalid_request"} {
		t.Run(code, func(t *testing.T) {
			store, repo, issuer := newTestTokenStore(t, expiredRecord("u1"))
			issuer.RefreshFunc = func(context.Context, string) (*hh.Token, error) {
				return nil, &hh.ProviderAuthError{Status: http.StatusBadRequest, Code: code}
			}

			_, err := store.GetLatestToken(context.Background(), "u1")
			assert.ErrorIs(t, err, ErrNoValidToken)

			_, ok := repo.Get("u1")
			assert.False(t, ok, "dead refresh token must be dropped")

			_, err = store.GetLatestToken(context.Background(), "u1")
			assert.ErrorIs(t, err, ErrNoValidToken)
			assert.Equal(t, 1, issuer.RefreshCalls(), "a dropped record is not refreshed again")
		})
	}
}

func TestGetLatestTokenTransientRefreshFailureKeepsRecord(t *testing.T) {
	store, repo, issuer := newTestTokenStore(t, expiredRecord("u1"))
	issuer.RefreshFunc = func(context.Context, string) (*hh.Token, error) {
		return nil, &hh.ProviderAuthError{Status: http.StatusBadGateway, Code: "server_error"}
	}

	_, err := store.GetLatestToken(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoValidToken)

	stored, ok := repo.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "stale-refresh", stored.RefreshToken)
	assert.Equal(t, 0, repo.DeleteCalls)
}

func TestConcurrentRefreshIsSerialized(t *testing.T) {
	store, _, issuer := newTestTokenStore(t, expiredRecord("u1"))
	issuer.RefreshDelay = 50 * time.Millisecond

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := store.GetLatestToken(context.Background(), "u1")
			errs[i] = err
			if record != nil {
				tokens[i] = record.AccessToken
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "refreshed-access", tokens[i])
	}
	assert.Equal(t, 1, issuer.RefreshCalls())
}

func TestRefreshSurvivesCancelledInitiator(t *testing.T) {
	store, _, issuer := newTestTokenStore(t, expiredRecord("u1"))
	issuer.RefreshFunc = func(ctx context.Context, _ string) (*hh.Token, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &hh.Token{AccessToken: "refreshed-access", RefreshToken: "refreshed-refresh", ExpiresIn: 3600}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := store.refresher.RefreshRecord(ctx, expiredRecord("u1"))
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", record.AccessToken)
	assert.Equal(t, 1, issuer.RefreshCalls())
}

func TestRefreshTokenForcesRefresh(t *testing.T) {
	store, _, issuer := newTestTokenStore(t, &domain.TokenRecord{
		UserID:       "u1",
		AccessToken:  "live-access",
		RefreshToken: "live-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	record, err := store.RefreshToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", record.AccessToken)
	assert.Equal(t, 1, issuer.RefreshCalls())
}

func TestRefreshTokenRejectedKeepsCause(t *testing.T) {
	store, _, issuer := newTestTokenStore(t, expiredRecord("u1"))
	issuer.RefreshFunc = func(context.Context, string) (*hh.Token, error) {
		return nil, &hh.ProviderAuthError{Status: http.StatusBadRequest, Code: "invalid_grant", Description: "token revoked"}
	}

	_, err := store.RefreshToken(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoValidToken)

	var authErr *hh.ProviderAuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "token revoked", authErr.Description)
}

func TestRefreshServiceReportsOutcome(t *testing.T) {
	store, _, issuer := newTestTokenStore(t, expiredRecord("u1"))

	assert.True(t, store.refresher.Refresh(context.Background(), expiredRecord("u1")))

	issuer.RefreshFunc = func(context.Context, string) (*hh.Token, error) {
		return nil, errors.New("network down")
	}
	record, err := store.repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	record.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.repo.Upsert(context.Background(), record))

	assert.False(t, store.refresher.Refresh(context.Background(), record))
}
