package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rembayung/waitroom/internal/delivery/kafka"
	"github.com/rembayung/waitroom/internal/delivery/kafka/producer"
	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/internal/monitoring"
	"github.com/rembayung/waitroom/internal/queue"
	repo "github.com/rembayung/waitroom/internal/repository/redis"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/redis"
)

type QueueService interface {
	IssueTicket(ctx context.Context, in EnterInput) (*models.QueueTicket, error)
	GetTicket(ctx context.Context, vID string) (*models.QueueTicket, error)
	DiscardTicket(ctx context.Context, vID string) error
	Evaluate(tk *models.QueueTicket) models.QueueEvaluation
	ShouldTransitionToAdmitted(ev models.QueueEvaluation) bool
}

type queueService struct {
	engine *queue.Engine
	repo   repo.TicketRepository
	clock  queue.Clock
	prod   producer.Producer
	l      logger.Logger
}

func NewQueueService(
	engine *queue.Engine,
	repo repo.TicketRepository,
	clock queue.Clock,
	prod producer.Producer,
	l logger.Logger,
) QueueService {
	return &queueService{
		engine: engine,
		repo:   repo,
		clock:  clock,
		prod:   prod,
		l:      l,
	}
}

func (s *queueService) IssueTicket(ctx context.Context, in EnterInput) (*models.QueueTicket, error) {
	vID := in.VisitorID
	now := s.clock.Now()
	tk := s.engine.IssueTicket(now)
	window := s.engine.TrafficWindow(now)

	if err := s.repo.Save(ctx, vID, &tk); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	monitoring.TicketIssued(string(window))

	if err := s.prod.PublishTicketIssued(ctx, kafka.TicketIssuedEvent{
		VisitorID:      vID,
		TicketID:       tk.ID,
		StartPosition:  tk.StartPosition,
		ProcessingRate: tk.ProcessingRate,
		TrafficWindow:  string(window),
		UserAgent:      in.UserAgent,
		IPAddress:      in.IPAddress,
		IssuedAt:       time.UnixMilli(tk.IssuedAtEpochMillis),
	}); err != nil {
		s.l.Errorf(ctx, "service.queueService.IssueTicket: %v", err)
	}

	s.l.Infof(ctx, "Ticket issued - visitor_id: %s, ticket_id: %s, start_position: %d, rate: %d, window: %s, ip: %s, user_agent: %q",
		vID, tk.ID, tk.StartPosition, tk.ProcessingRate, window, in.IPAddress, in.UserAgent)

	return &tk, nil
}

// GetTicket rehydrates the stored ticket. A ticket that fails to decode or
// validate is removed and reported as ErrTicketMalformed.
func (s *queueService) GetTicket(ctx context.Context, vID string) (*models.QueueTicket, error) {
	tk, err := s.repo.Get(ctx, vID)
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTicketNotFound
		}
		if errors.Is(err, repo.ErrCorruptValue) {
			return nil, s.discardMalformed(ctx, vID, err)
		}
		return nil, err
	}

	if err := tk.Validate(); err != nil {
		return nil, s.discardMalformed(ctx, vID, err)
	}

	return tk, nil
}

func (s *queueService) discardMalformed(ctx context.Context, vID string, cause error) error {
	s.l.Warnf(ctx, "service.queueService.GetTicket: discarding stored ticket for %s: %v", vID, cause)

	if err := s.repo.Delete(ctx, vID); err != nil {
		return fmt.Errorf("failed to discard malformed ticket: %w", err)
	}
	monitoring.TicketDiscarded("malformed")

	return ErrTicketMalformed
}

func (s *queueService) DiscardTicket(ctx context.Context, vID string) error {
	if err := s.repo.Delete(ctx, vID); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

func (s *queueService) Evaluate(tk *models.QueueTicket) models.QueueEvaluation {
	return s.engine.Evaluate(*tk, s.clock.Now())
}

func (s *queueService) ShouldTransitionToAdmitted(ev models.QueueEvaluation) bool {
	return s.engine.ShouldTransitionToAdmitted(ev)
}
