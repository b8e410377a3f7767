package service

import (
	"context"
	"sync"
	"time"

	"github.com/rembayung/waitroom/internal/delivery/kafka"
	"github.com/rembayung/waitroom/internal/models"
	repo "github.com/rembayung/waitroom/internal/repository/redis"
	"github.com/rembayung/waitroom/pkg/redis"
)

// fakeClock is frozen until Run is called; after that it also moves with
// wall time, so timer-driven code sees ordered timestamps.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	wall time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wall.IsZero() {
		return c.now
	}
	return c.now.Add(time.Since(c.wall))
}

func (c *fakeClock) Run() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = time.Now()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedRand func(n int) int

func (f fixedRand) IntN(n int) int { return f(n) }

var lowRand = fixedRand(func(int) int { return 0 })

type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*models.QueueTicket
	getErr  error
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*models.QueueTicket{}}
}

func (r *memTicketRepo) Save(_ context.Context, vID string, tk *models.QueueTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tk
	r.tickets[vID] = &cp
	return nil
}

func (r *memTicketRepo) Get(_ context.Context, vID string) (*models.QueueTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	tk, ok := r.tickets[vID]
	if !ok {
		return nil, redis.Nil
	}
	cp := *tk
	return &cp, nil
}

func (r *memTicketRepo) Delete(_ context.Context, vID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, vID)
	return nil
}

func (r *memTicketRepo) has(vID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tickets[vID]
	return ok
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.AdmittedSession
	revoked  map[string]string
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: map[string]*models.AdmittedSession{},
		revoked:  map[string]string{},
	}
}

func (r *memSessionRepo) Create(_ context.Context, ss *models.AdmittedSession, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[ss.VisitorID]; ok {
		return repo.ErrSessionExists
	}
	cp := *ss
	r.sessions[ss.VisitorID] = &cp
	return nil
}

func (r *memSessionRepo) GetByVisitor(_ context.Context, vID string) (*models.AdmittedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ss, ok := r.sessions[vID]
	if !ok {
		return nil, redis.Nil
	}
	cp := *ss
	return &cp, nil
}

func (r *memSessionRepo) Delete(_ context.Context, vID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, vID)
	return nil
}

func (r *memSessionRepo) InvalidateToken(_ context.Context, token, reason string, _ time.Time, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = reason
	return nil
}

func (r *memSessionRepo) IsTokenInvalidated(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[token]
	return ok, nil
}

type recordingProducer struct {
	mu       sync.Mutex
	issued   []kafka.TicketIssuedEvent
	admitted []kafka.VisitorAdmittedEvent
	resets   []kafka.SessionResetEvent
}

func (p *recordingProducer) PublishTicketIssued(_ context.Context, e kafka.TicketIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, e)
	return nil
}

func (p *recordingProducer) PublishVisitorAdmitted(_ context.Context, e kafka.VisitorAdmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.admitted = append(p.admitted, e)
	return nil
}

func (p *recordingProducer) PublishSessionReset(_ context.Context, e kafka.SessionResetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, e)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) admittedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.admitted)
}
