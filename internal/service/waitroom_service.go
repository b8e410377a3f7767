package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rembayung/waitroom/config"
	"github.com/rembayung/waitroom/internal/delivery/kafka"
	"github.com/rembayung/waitroom/internal/delivery/kafka/producer"
	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/internal/monitoring"
	"github.com/rembayung/waitroom/internal/queue"
	pkgLog "github.com/rembayung/waitroom/pkg/logger"
)

const resetReasonVisitor = "visitor_reset"

type WaitroomService interface {
	Enter(ctx context.Context, in EnterInput) (*AccessOutput, error)
	GetQueueStatus(ctx context.Context, vID string) (*AccessOutput, error)
	Admit(ctx context.Context, vID string) (*AccessOutput, error)
	Reset(ctx context.Context, vID string) error
	ValidateAccess(ctx context.Context, token string) (*AccessClaims, error)

	// Real-time position streaming
	StreamQueuePosition(ctx context.Context, vID string, upds chan<- *models.PositionUpdate) error
}

type waitroomService struct {
	qSvc  QueueService
	ssSvc SessionService
	prod  producer.Producer
	clock queue.Clock
	cfg   config.QueueConfig
	l     pkgLog.Logger
}

func NewWaitroomService(
	qSvc QueueService,
	ssSvc SessionService,
	prod producer.Producer,
	clock queue.Clock,
	cfg config.QueueConfig,
	l pkgLog.Logger,
) WaitroomService {
	return &waitroomService{
		qSvc:  qSvc,
		ssSvc: ssSvc,
		prod:  prod,
		clock: clock,
		cfg:   cfg,
		l:     l,
	}
}

// Enter resumes whatever the visitor already holds: an active session, then a
// stored ticket. Only when neither exists is a new ticket issued.
func (s *waitroomService) Enter(ctx context.Context, in EnterInput) (*AccessOutput, error) {
	if in.VisitorID == "" {
		return nil, ErrVisitorIDRequired
	}

	ss, err := s.activeSession(ctx, in.VisitorID)
	if err != nil {
		return nil, err
	}
	if ss != nil {
		return s.admittedOutput(ss), nil
	}

	tk, err := s.qSvc.GetTicket(ctx, in.VisitorID)
	if err != nil {
		if !errors.Is(err, ErrTicketNotFound) && !errors.Is(err, ErrTicketMalformed) {
			return nil, fmt.Errorf("failed to get ticket: %w", err)
		}

		tk, err = s.qSvc.IssueTicket(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to issue ticket: %w", err)
		}
	}

	return s.queuedOutput(in.VisitorID, tk), nil
}

func (s *waitroomService) GetQueueStatus(ctx context.Context, vID string) (*AccessOutput, error) {
	if vID == "" {
		return nil, ErrVisitorIDRequired
	}

	ss, err := s.activeSession(ctx, vID)
	if err != nil {
		return nil, err
	}
	if ss != nil {
		return s.admittedOutput(ss), nil
	}

	tk, err := s.qSvc.GetTicket(ctx, vID)
	if err != nil {
		return nil, err
	}

	return s.queuedOutput(vID, tk), nil
}

// Admit converts a ticket whose position has reached zero into a session.
// Calling it again while the session is active returns that same session.
func (s *waitroomService) Admit(ctx context.Context, vID string) (*AccessOutput, error) {
	if vID == "" {
		return nil, ErrVisitorIDRequired
	}

	ss, err := s.activeSession(ctx, vID)
	if err != nil {
		return nil, err
	}
	if ss != nil {
		return s.admittedOutput(ss), nil
	}

	tk, err := s.qSvc.GetTicket(ctx, vID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			// A concurrent Admit may have consumed the ticket already.
			if ss, _ := s.activeSession(ctx, vID); ss != nil {
				return s.admittedOutput(ss), nil
			}
		}
		return nil, err
	}

	ev := s.qSvc.Evaluate(tk)
	if !s.qSvc.ShouldTransitionToAdmitted(ev) {
		monitoring.AdmissionRejected()
		s.l.Warnf(ctx, "service.waitroomService.Admit: %s still at position %d", vID, ev.CurrentPosition)
		return nil, ErrNotYetAdmitted
	}

	ss, err = s.ssSvc.CreateSession(ctx, vID, tk.ID)
	if err != nil {
		if errors.Is(err, ErrSessionExists) {
			return s.concurrentAdmission(ctx, vID)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.qSvc.DiscardTicket(ctx, vID); err != nil {
		s.l.Errorf(ctx, "service.waitroomService.Admit: %v", err)
	}

	waited := ss.AdmittedAt.Sub(time.UnixMilli(tk.IssuedAtEpochMillis))
	monitoring.AdmissionGranted(waited)

	if err := s.prod.PublishVisitorAdmitted(ctx, kafka.VisitorAdmittedEvent{
		VisitorID:  vID,
		TicketID:   tk.ID,
		SessionID:  ss.ID,
		WaitedSec:  int64(waited / time.Second),
		AdmittedAt: ss.AdmittedAt,
		ExpiresAt:  ss.ExpiresAt,
	}); err != nil {
		s.l.Errorf(ctx, "service.waitroomService.Admit: %v", err)
	}

	s.l.Infof(ctx, "Visitor admitted - visitor_id: %s, ticket_id: %s, session_id: %s, waited: %s",
		vID, tk.ID, ss.ID, waited)

	return s.admittedOutput(ss), nil
}

// concurrentAdmission returns the session another Admit stored first. Only
// that Admit publishes the admission.
func (s *waitroomService) concurrentAdmission(ctx context.Context, vID string) (*AccessOutput, error) {
	ss, err := s.activeSession(ctx, vID)
	if err != nil {
		return nil, err
	}
	if ss == nil {
		return nil, ErrSessionNotFound
	}

	s.l.Debugf(ctx, "Admission already granted - visitor_id: %s, session_id: %s", vID, ss.ID)

	return s.admittedOutput(ss), nil
}

// Reset drops the visitor's ticket and session. The next Enter starts over
// with a fresh ticket.
func (s *waitroomService) Reset(ctx context.Context, vID string) error {
	if vID == "" {
		return ErrVisitorIDRequired
	}

	ss, err := s.ssSvc.RevokeSession(ctx, vID, resetReasonVisitor)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if err := s.qSvc.DiscardTicket(ctx, vID); err != nil {
		return err
	}
	monitoring.TicketDiscarded("reset")

	evt := kafka.SessionResetEvent{
		VisitorID: vID,
		Reason:    resetReasonVisitor,
		ResetAt:   s.clock.Now(),
	}
	if ss != nil {
		evt.SessionID = ss.ID
		evt.TicketID = ss.TicketID
	}

	if err := s.prod.PublishSessionReset(ctx, evt); err != nil {
		s.l.Errorf(ctx, "service.waitroomService.Reset: %v", err)
	}

	s.l.Infof(ctx, "Visitor reset - visitor_id: %s", vID)

	return nil
}

func (s *waitroomService) ValidateAccess(ctx context.Context, token string) (*AccessClaims, error) {
	return s.ssSvc.ValidateAccessToken(ctx, token)
}

// StreamQueuePosition pushes an evaluation every EvaluateInterval. The first
// evaluation that reports admission fires a one-shot latch which schedules
// Admit after AdmitGraceDelay; later ticks keep reporting position zero but
// never schedule it again. The stream ends after the admitted update.
func (s *waitroomService) StreamQueuePosition(ctx context.Context, vID string, upds chan<- *models.PositionUpdate) error {
	out, err := s.GetQueueStatus(ctx, vID)
	if err != nil {
		return err
	}

	if out.Status == models.AccessStatusAdmitted {
		return s.send(ctx, upds, s.admittedUpdate(out))
	}

	tk := out.Ticket
	var (
		admit queue.Latch
		grace *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if grace != nil {
			grace.Stop()
		}
	}()

	evaluate := func() error {
		ev := s.qSvc.Evaluate(tk)
		if err := s.send(ctx, upds, &models.PositionUpdate{
			VisitorID:    vID,
			TicketID:     tk.ID,
			Type:         models.UpdateTypePosition,
			Evaluation:   &ev,
			TotalTraffic: tk.TotalTraffic,
			Timestamp:    s.clock.Now(),
		}); err != nil {
			return err
		}

		if s.qSvc.ShouldTransitionToAdmitted(ev) && admit.TryFire() {
			s.l.Debugf(ctx, "Position reached zero - visitor_id: %s, admitting in %s", vID, s.cfg.AdmitGraceDelay)
			grace = time.NewTimer(s.cfg.AdmitGraceDelay)
			fire = grace.C
		}
		return nil
	}

	if err := evaluate(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.EvaluateInterval)
	defer ticker.Stop()

	s.l.Infof(ctx, "Started streaming queue position - visitor_id: %s, ticket_id: %s", vID, tk.ID)

	for {
		select {
		case <-ctx.Done():
			s.l.Infof(ctx, "Position stream closed by context - visitor_id: %s", vID)
			return ctx.Err()

		case <-ticker.C:
			if err := evaluate(); err != nil {
				return err
			}

		case <-fire:
			adm, err := s.Admit(ctx, vID)
			if err != nil {
				return fmt.Errorf("failed to admit visitor: %w", err)
			}
			return s.send(ctx, upds, s.admittedUpdate(adm))
		}
	}
}

func (s *waitroomService) send(ctx context.Context, upds chan<- *models.PositionUpdate, upd *models.PositionUpdate) error {
	select {
	case upds <- upd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// activeSession returns nil, nil when the visitor has no usable session.
func (s *waitroomService) activeSession(ctx context.Context, vID string) (*models.AdmittedSession, error) {
	ss, err := s.ssSvc.GetActiveSession(ctx, vID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return ss, nil
}

func (s *waitroomService) queuedOutput(vID string, tk *models.QueueTicket) *AccessOutput {
	ev := s.qSvc.Evaluate(tk)
	eta := queue.EstimatedAdmissionAt(*tk)

	return &AccessOutput{
		VisitorID:            vID,
		Status:               models.AccessStatusQueued,
		Ticket:               tk,
		Evaluation:           &ev,
		EstimatedAdmissionAt: &eta,
		StreamURL:            fmt.Sprintf("/api/v1/waitroom/%s/stream", vID),
	}
}

func (s *waitroomService) admittedOutput(ss *models.AdmittedSession) *AccessOutput {
	admittedAt, expiresAt := ss.AdmittedAt, ss.ExpiresAt
	return &AccessOutput{
		VisitorID:   ss.VisitorID,
		Status:      models.AccessStatusAdmitted,
		SessionID:   ss.ID,
		AccessToken: ss.AccessToken,
		AdmittedAt:  &admittedAt,
		ExpiresAt:   &expiresAt,
	}
}

func (s *waitroomService) admittedUpdate(out *AccessOutput) *models.PositionUpdate {
	return &models.PositionUpdate{
		VisitorID:   out.VisitorID,
		Type:        models.UpdateTypeAdmitted,
		AccessToken: out.AccessToken,
		ExpiresAt:   out.ExpiresAt,
		Timestamp:   s.clock.Now(),
	}
}
