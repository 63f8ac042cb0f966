package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
)

var _ ports.EventBus = (*KafkaBus)(nil)

// Producer escritor de mensajes Kafka (kafka.Writer o un doble en tests).
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig opciones del bus Kafka.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string // se antepone al tópico lógico: "<prefix>stock.changed"
}

// KafkaBus publica cada evento en el tópico "<prefix><topic>" con la clave de la entidad como key.
type KafkaBus struct {
	producer Producer
	prefix   string
}

// NewKafkaBus crea el bus con un kafka.Writer sin tópico fijo (el tópico va en cada mensaje).
func NewKafkaBus(cfg KafkaConfig) *KafkaBus {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaBusWithProducer(w, cfg.TopicPrefix)
}

// NewKafkaBusWithProducer permite inyectar el productor.
func NewKafkaBusWithProducer(p Producer, topicPrefix string) *KafkaBus {
	return &KafkaBus{producer: p, prefix: topicPrefix}
}

func (b *KafkaBus) Publish(ctx context.Context, ev ports.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Topic, err)
	}
	msg := kafka.Message{
		Topic: b.prefix + ev.Topic,
		Key:   []byte(ev.Key),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "actor", Value: []byte(ev.Actor)},
		},
	}
	if err := b.producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar en kafka %s: %w", msg.Topic, err)
	}
	return nil
}

func (b *KafkaBus) Close() error {
	return b.producer.Close()
}
