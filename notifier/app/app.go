package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/notifier/config"
	"github.com/Astemirdum/booktracker/notifier/internal/handler"
	"github.com/Astemirdum/booktracker/pkg/kafka"
	"github.com/Astemirdum/booktracker/pkg/logger"
	"github.com/Astemirdum/booktracker/pkg/mailer"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "notifier")
	defer log.Sync() //nolint:errcheck

	m := mailer.New(cfg.Mail, log)
	group, err := kafka.NewConsumer(cfg.Kafka, kafka.NotifierConsumerGroup)
	if err != nil {
		log.Fatal("kafka.NewConsumer", zap.Error(err))
	}
	consumer := handler.NewConsumer(m.SendBookAdded, log)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		kafka.Consume(ctx, group, consumer, log, kafka.BookAddedTopic)
	}()
	go func() {
		select {
		case <-consumer.Ready():
			log.Info("consumer up", zap.String("topic", kafka.BookAddedTopic), zap.String("group", kafka.NotifierConsumerGroup))
		case <-ctx.Done():
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	cancel()
	wg.Wait()
	if err = group.Close(); err != nil {
		log.Error("consumer group close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
