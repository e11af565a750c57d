package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/pkg/kafka"
	"github.com/Astemirdum/booktracker/pkg/metrics"
)

type sendBookAdded func(ctx context.Context, to, name, title string) error

type Consumer struct {
	sendBookAddedHandler sendBookAdded
	log                  *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

func NewConsumer(send sendBookAdded, log *zap.Logger) *Consumer {
	return &Consumer{
		sendBookAddedHandler: send,
		log:                  log.Named("consumer"),
		ready:                make(chan struct{}),
	}
}

// Ready is closed once the first session has been set up.
func (consumer *Consumer) Ready() <-chan struct{} {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.readyOnce.Do(func() { close(consumer.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks every message, delivered or not: a failed email is logged and counted, not retried.
func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			consumer.handle(session.Context(), message)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) {
	var event kafka.BookAddedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		metrics.NotificationsFailed.WithLabelValues("decode").Inc()
		consumer.log.Error("decode book added event", zap.Int64("offset", message.Offset), zap.Error(err))
		return
	}
	if event.Email == "" {
		consumer.log.Warn("book added event without recipient", zap.String("book_id", event.BookID))
		return
	}
	if err := consumer.sendBookAddedHandler(ctx, event.Email, event.Name, event.Title); err != nil {
		metrics.NotificationsFailed.WithLabelValues("email").Inc()
		consumer.log.Error("send book added email",
			zap.String("book_id", event.BookID),
			zap.String("owner", event.OwnerID),
			zap.Error(err))
		return
	}
	consumer.log.Debug("Message claimed:",
		zap.String("book_id", event.BookID),
		zap.Time("timestamp", message.Timestamp),
		zap.String("topic", message.Topic))
}
