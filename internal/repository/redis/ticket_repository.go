package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rembayung/waitroom/internal/models"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/redis"
)

type TicketRepository interface {
	Save(ctx context.Context, vID string, tk *models.QueueTicket) error
	Get(ctx context.Context, vID string) (*models.QueueTicket, error)
	Delete(ctx context.Context, vID string) error
}

type redisTicketRepository struct {
	store Store
	ttl   time.Duration
	l     logger.Logger
}

func NewRedisTicketRepository(store Store, ttl time.Duration, l logger.Logger) TicketRepository {
	return &redisTicketRepository{
		store: store,
		ttl:   ttl,
		l:     l,
	}
}

func (r *redisTicketRepository) Save(ctx context.Context, vID string, tk *models.QueueTicket) error {
	if err := r.store.SetJSON(ctx, r.ticketKey(vID), tk, r.ttl); err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.Save: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Ticket saved - visitor_id: %s, ticket_id: %s", vID, tk.ID)

	return nil
}

// Get returns redis.Nil when no ticket is stored and ErrCorruptValue when the
// stored bytes do not decode. Field-level validation is left to the caller.
func (r *redisTicketRepository) Get(ctx context.Context, vID string) (*models.QueueTicket, error) {
	var tk models.QueueTicket
	if err := r.store.GetJSON(ctx, r.ticketKey(vID), &tk); err != nil {
		if err != redis.Nil {
			r.l.Errorf(ctx, "redisTicketRepository.Get: %v", err)
		}
		return nil, err
	}

	return &tk, nil
}

func (r *redisTicketRepository) Delete(ctx context.Context, vID string) error {
	if err := r.store.Remove(ctx, r.ticketKey(vID)); err != nil {
		r.l.Errorf(ctx, "redisTicketRepository.Delete: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Ticket deleted - visitor_id: %s", vID)

	return nil
}

func (r *redisTicketRepository) ticketKey(vID string) string {
	return fmt.Sprintf("waitroom:ticket:%s", vID)
}
