package notify

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/pkg/kafka"
	"github.com/Astemirdum/booktracker/pkg/metrics"
)

// KafkaNotifier publishes book-added events to BookAddedTopic for the notifier service.
type KafkaNotifier struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger
	done     chan struct{}
}

func NewKafkaNotifier(producer sarama.AsyncProducer, log *zap.Logger) *KafkaNotifier {
	n := &KafkaNotifier{
		producer: producer,
		topic:    kafka.BookAddedTopic,
		log:      log.Named("kafka_notifier"),
		done:     make(chan struct{}),
	}
	go n.drainErrors()
	return n
}

func (n *KafkaNotifier) NotifyBookAdded(ctx context.Context, event kafka.BookAddedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(event.OwnerID),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case n.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *KafkaNotifier) drainErrors() {
	defer close(n.done)
	for perr := range n.producer.Errors() {
		metrics.NotificationsFailed.WithLabelValues("publish").Inc()
		n.log.Error("publish book added", zap.String("topic", perr.Msg.Topic), zap.Error(perr.Err))
	}
}

// Close flushes the producer and waits for its error channel to drain.
func (n *KafkaNotifier) Close() error {
	n.producer.AsyncClose()
	<-n.done
	return nil
}

// Mailer is satisfied by *mailer.Mailer.
type Mailer interface {
	SendBookAdded(ctx context.Context, to, name, title string) error
}

// MailNotifier sends the email in-process when no broker is configured.
type MailNotifier struct {
	mailer Mailer
}

func NewMailNotifier(m Mailer) *MailNotifier {
	return &MailNotifier{mailer: m}
}

func (n *MailNotifier) NotifyBookAdded(ctx context.Context, event kafka.BookAddedEvent) error {
	return n.mailer.SendBookAdded(ctx, event.Email, event.Name, event.Title)
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("log_notifier")}
}

func (n *LogNotifier) NotifyBookAdded(_ context.Context, event kafka.BookAddedEvent) error {
	n.log.Info("book added",
		zap.String("book_id", event.BookID),
		zap.String("owner", event.OwnerID),
		zap.String("title", event.Title))
	return nil
}
