package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/rembayung/waitroom/internal/delivery/kafka"
	"github.com/rembayung/waitroom/pkg/logger"
	"github.com/rembayung/waitroom/pkg/util"
)

type Producer interface {
	PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error
	PublishVisitorAdmitted(ctx context.Context, event kafka.VisitorAdmittedEvent) error
	PublishSessionReset(ctx context.Context, event kafka.SessionResetEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicTicketIssued, event.VisitorID, event)
}

func (p *implProducer) PublishVisitorAdmitted(ctx context.Context, event kafka.VisitorAdmittedEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicVisitorAdmitted, event.VisitorID, event)
}

func (p *implProducer) PublishSessionReset(ctx context.Context, event kafka.SessionResetEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicSessionReset, event.VisitorID, event)
}

// Keyed by visitor so one visitor's lifecycle stays ordered within a partition.
func (p *implProducer) publish(ctx context.Context, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(util.TimeToISO8601Str(time.Now())),
			},
		},
	}

	partition, offset, err := p.prod.SendMessage(msg)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: topic=%s: %v", topic, err)
		return err
	}

	p.l.Debugf(ctx, "Published %s - partition: %d, offset: %d", topic, partition, offset)

	return nil
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}

type nopProducer struct{}

// NewNopProducer is used when KAFKA_ENABLED is false.
func NewNopProducer() Producer {
	return nopProducer{}
}

func (nopProducer) PublishTicketIssued(context.Context, kafka.TicketIssuedEvent) error {
	return nil
}

func (nopProducer) PublishVisitorAdmitted(context.Context, kafka.VisitorAdmittedEvent) error {
	return nil
}

func (nopProducer) PublishSessionReset(context.Context, kafka.SessionResetEvent) error {
	return nil
}

func (nopProducer) Close() error {
	return nil
}
