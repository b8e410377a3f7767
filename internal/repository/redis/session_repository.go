package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/redis"
)

var ErrSessionExists = errors.New("visitor already has an admitted session")

type SessionRepository interface {
	// Create fails with ErrSessionExists if the visitor already has a session.
	Create(ctx context.Context, ss *models.AdmittedSession, ttl time.Duration) error
	GetByVisitor(ctx context.Context, vID string) (*models.AdmittedSession, error)
	Delete(ctx context.Context, vID string) error

	InvalidateToken(ctx context.Context, token, reason string, at time.Time, ttl time.Duration) error
	IsTokenInvalidated(ctx context.Context, token string) (bool, error)
}

type redisSessionRepository struct {
	store Store
	l     logger.Logger
}

func NewRedisSessionRepository(store Store, l logger.Logger) SessionRepository {
	return &redisSessionRepository{
		store: store,
		l:     l,
	}
}

type tokenInvalidation struct {
	Reason        string `json:"reason"`
	InvalidatedAt int64  `json:"invalidated_at"`
}

func (r *redisSessionRepository) Create(ctx context.Context, ss *models.AdmittedSession, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", ss.ID)
	}

	ok, err := r.store.SetJSONIfAbsent(ctx, r.sessionKey(ss.VisitorID), ss, ttl)
	if err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.Create: %v", err)
		return err
	}
	if !ok {
		return ErrSessionExists
	}

	r.l.Debugf(ctx, "Session created - session_id: %s, visitor_id: %s, ttl: %s", ss.ID, ss.VisitorID, ttl)

	return nil
}

func (r *redisSessionRepository) GetByVisitor(ctx context.Context, vID string) (*models.AdmittedSession, error) {
	var ss models.AdmittedSession
	if err := r.store.GetJSON(ctx, r.sessionKey(vID), &ss); err != nil {
		if err != redis.Nil {
			r.l.Errorf(ctx, "redisSessionRepository.GetByVisitor: %v", err)
		}
		return nil, err
	}

	return &ss, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, vID string) error {
	if err := r.store.Remove(ctx, r.sessionKey(vID)); err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.Delete: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Session deleted - visitor_id: %s", vID)

	return nil
}

func (r *redisSessionRepository) InvalidateToken(ctx context.Context, token, reason string, at time.Time, ttl time.Duration) error {
	if token == "" {
		return nil
	}

	// A token past its expiry is rejected by signature checks anyway.
	if ttl <= 0 {
		return nil
	}

	rec := tokenInvalidation{
		Reason:        reason,
		InvalidatedAt: at.Unix(),
	}
	if err := r.store.SetJSON(ctx, r.tokenBlacklistKey(r.hashToken(token)), rec, ttl); err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.InvalidateToken: %v", err)
		return err
	}

	r.l.Infof(ctx, "Token invalidated - reason: %s, ttl: %s", reason, ttl)

	return nil
}

func (r *redisSessionRepository) IsTokenInvalidated(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("token cannot be empty")
	}

	exists, err := r.store.Exists(ctx, r.tokenBlacklistKey(r.hashToken(token)))
	if err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.IsTokenInvalidated: %v", err)
		return false, err
	}

	return exists, nil
}

func (r *redisSessionRepository) sessionKey(vID string) string {
	return fmt.Sprintf("waitroom:session:%s", vID)
}

func (r *redisSessionRepository) tokenBlacklistKey(tokenHash string) string {
	return fmt.Sprintf("waitroom:token:blacklist:%s", tokenHash)
}

// hashToken keeps raw tokens out of key names.
func (r *redisSessionRepository) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
