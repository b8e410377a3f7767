package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rembayung/waitroom/config"
	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/internal/queue"
	repo "github.com/rembayung/waitroom/internal/repository/redis"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/redis"
)

type SessionService interface {
	CreateSession(ctx context.Context, vID, ticketID string) (*models.AdmittedSession, error)
	GetActiveSession(ctx context.Context, vID string) (*models.AdmittedSession, error)
	RevokeSession(ctx context.Context, vID, reason string) (*models.AdmittedSession, error)
	ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, error)
}

type sessionService struct {
	repo  repo.SessionRepository
	jwt   config.JWTConfig
	ttl   time.Duration
	clock queue.Clock
	l     logger.Logger
}

func NewSessionService(
	repo repo.SessionRepository,
	jwtCfg config.JWTConfig,
	ttl time.Duration,
	clock queue.Clock,
	l logger.Logger,
) SessionService {
	return &sessionService{
		repo:  repo,
		jwt:   jwtCfg,
		ttl:   ttl,
		clock: clock,
		l:     l,
	}
}

type accessTokenClaims struct {
	TicketID string `json:"tid"`
	jwt.RegisteredClaims
}

func (s *sessionService) CreateSession(ctx context.Context, vID, ticketID string) (*models.AdmittedSession, error) {
	now := s.clock.Now()

	ss := &models.AdmittedSession{
		ID:         uuid.New().String(),
		VisitorID:  vID,
		TicketID:   ticketID,
		AdmittedAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}

	token, err := s.generateAccessToken(ss)
	if err != nil {
		return nil, err
	}
	ss.AccessToken = token

	if err := s.repo.Create(ctx, ss, s.ttl); err != nil {
		if !errors.Is(err, ErrSessionExists) {
			s.l.Errorf(ctx, "service.sessionService.CreateSession: %v", err)
		}
		return nil, err
	}

	return ss, nil
}

// GetActiveSession removes a session whose expiry has passed and reports
// ErrSessionExpired for it.
func (s *sessionService) GetActiveSession(ctx context.Context, vID string) (*models.AdmittedSession, error) {
	ss, err := s.repo.GetByVisitor(ctx, vID)
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		if errors.Is(err, repo.ErrCorruptValue) {
			s.l.Warnf(ctx, "service.sessionService.GetActiveSession: dropping corrupt session for %s", vID)
			if err := s.repo.Delete(ctx, vID); err != nil {
				return nil, err
			}
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if ss.IsExpired(s.clock.Now()) {
		if err := s.repo.Delete(ctx, vID); err != nil {
			s.l.Errorf(ctx, "service.sessionService.GetActiveSession: %v", err)
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return ss, nil
}

// RevokeSession deletes the visitor's session and blacklists its token for
// the rest of the token's life. Returns nil, nil if there was no session.
func (s *sessionService) RevokeSession(ctx context.Context, vID, reason string) (*models.AdmittedSession, error) {
	ss, err := s.repo.GetByVisitor(ctx, vID)
	if err != nil {
		if err == redis.Nil || errors.Is(err, repo.ErrCorruptValue) {
			return nil, s.repo.Delete(ctx, vID)
		}
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.InvalidateToken(ctx, ss.AccessToken, reason, now, ss.Remaining(now)); err != nil {
		return nil, fmt.Errorf("failed to invalidate access token: %w", err)
	}

	if err := s.repo.Delete(ctx, vID); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	s.l.Infof(ctx, "Session revoked - visitor_id: %s, session_id: %s, reason: %s", vID, ss.ID, reason)

	return ss, nil
}

func (s *sessionService) ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, error) {
	if token == "" {
		return nil, ErrTokenEmpty
	}

	claims := &accessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return []byte(s.jwt.Secret), nil
	},
		jwt.WithIssuer(s.jwt.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.l.Warnf(ctx, "Invalid access token: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalidClaims
	}

	revoked, err := s.repo.IsTokenInvalidated(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenInvalidated
	}

	ss, err := s.GetActiveSession(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil, ErrTokenInvalidated
		}
		return nil, err
	}

	// A newer admission replaced the session this token was minted for.
	if ss.ID != claims.ID {
		return nil, ErrTokenInvalidated
	}

	return &AccessClaims{
		VisitorID: claims.Subject,
		SessionID: claims.ID,
		TicketID:  claims.TicketID,
		ExpiresAt: ss.ExpiresAt,
	}, nil
}

func (s *sessionService) generateAccessToken(ss *models.AdmittedSession) (string, error) {
	claims := accessTokenClaims{
		TicketID: ss.TicketID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ss.ID,
			Subject:   ss.VisitorID,
			Issuer:    s.jwt.Issuer,
			IssuedAt:  jwt.NewNumericDate(ss.AdmittedAt),
			ExpiresAt: jwt.NewNumericDate(ss.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}
