package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/pkg/logger"
	pkgRedis "github.com/rembayung/waitroom/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore() (Store, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewRedisStore(pkgRedis.Wrap(db)), mock
}

func sampleTicket() *models.QueueTicket {
	return &models.QueueTicket{
		ID:                  "a1b2c3d4e5",
		IssuedAtEpochMillis: 1_780_000_000_000,
		StartPosition:       4200,
		TotalTraffic:        4200,
		ProcessingRate:      120,
	}
}

func TestTicketRepository_SaveAndGet(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisTicketRepository(store, 24*time.Hour, logger.NewNop())
	ctx := context.Background()

	tk := sampleTicket()
	data, err := json.Marshal(tk)
	require.NoError(t, err)

	mock.ExpectSet("waitroom:ticket:visitor-1", string(data), 24*time.Hour).SetVal("OK")
	mock.ExpectGet("waitroom:ticket:visitor-1").SetVal(string(data))

	require.NoError(t, repo.Save(ctx, "visitor-1", tk))

	got, err := repo.Get(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, tk, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_GetMissing(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisTicketRepository(store, time.Hour, logger.NewNop())

	mock.ExpectGet("waitroom:ticket:ghost").RedisNil()

	got, err := repo.Get(context.Background(), "ghost")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, pkgRedis.Nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_GetCorrupt(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisTicketRepository(store, time.Hour, logger.NewNop())

	mock.ExpectGet("waitroom:ticket:visitor-2").SetVal(`{"id": "x", "start_position": `)

	got, err := repo.Get(context.Background(), "visitor-2")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrCorruptValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_Delete(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisTicketRepository(store, time.Hour, logger.NewNop())

	mock.ExpectDel("waitroom:ticket:visitor-1").SetVal(1)
	assert.NoError(t, repo.Delete(context.Background(), "visitor-1"))

	mock.ExpectDel("waitroom:ticket:visitor-1").SetErr(errors.New("connection refused"))
	assert.Error(t, repo.Delete(context.Background(), "visitor-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisSessionRepository(store, logger.NewNop())
	ctx := context.Background()

	now := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	ss := &models.AdmittedSession{
		ID:          "6f1c7a8e-0c1d-4a51-9c3e-2f7e0b9d8a11",
		VisitorID:   "visitor-1",
		TicketID:    "a1b2c3d4e5",
		AccessToken: "token",
		AdmittedAt:  now,
		ExpiresAt:   now.Add(2 * time.Hour),
	}
	data, err := json.Marshal(ss)
	require.NoError(t, err)

	mock.ExpectSetNX("waitroom:session:visitor-1", string(data), 2*time.Hour).SetVal(true)
	mock.ExpectGet("waitroom:session:visitor-1").SetVal(string(data))

	require.NoError(t, repo.Create(ctx, ss, 2*time.Hour))

	got, err := repo.GetByVisitor(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, ss.ID, got.ID)
	assert.True(t, ss.ExpiresAt.Equal(got.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CreateKeepsExistingSession(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisSessionRepository(store, logger.NewNop())

	now := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	ss := &models.AdmittedSession{
		ID:         "second",
		VisitorID:  "visitor-1",
		TicketID:   "a1b2c3d4e5",
		AdmittedAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	data, err := json.Marshal(ss)
	require.NoError(t, err)

	mock.ExpectSetNX("waitroom:session:visitor-1", string(data), time.Hour).SetVal(false)

	err = repo.Create(context.Background(), ss, time.Hour)
	assert.ErrorIs(t, err, ErrSessionExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CreateRejectsExpired(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisSessionRepository(store, logger.NewNop())

	err := repo.Create(context.Background(), &models.AdmittedSession{ID: "s", VisitorID: "v"}, 0)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_TokenBlacklist(t *testing.T) {
	store, mock := setupStore()
	repo := NewRedisSessionRepository(store, logger.NewNop()).(*redisSessionRepository)
	ctx := context.Background()

	at := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	key := repo.tokenBlacklistKey(repo.hashToken("tok"))
	rec, err := json.Marshal(tokenInvalidation{Reason: "reset", InvalidatedAt: at.Unix()})
	require.NoError(t, err)

	mock.ExpectSet(key, string(rec), 30*time.Minute).SetVal("OK")
	mock.ExpectExists(key).SetVal(1)

	require.NoError(t, repo.InvalidateToken(ctx, "tok", "reset", at, 30*time.Minute))

	revoked, err := repo.IsTokenInvalidated(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	// expired or empty tokens are a no-op
	assert.NoError(t, repo.InvalidateToken(ctx, "tok", "reset", at, 0))
	assert.NoError(t, repo.InvalidateToken(ctx, "", "reset", at, time.Minute))

	_, err = repo.IsTokenInvalidated(ctx, "")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
