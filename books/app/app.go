package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/config"
	"github.com/Astemirdum/booktracker/books/internal/handler"
	"github.com/Astemirdum/booktracker/books/internal/notify"
	"github.com/Astemirdum/booktracker/books/internal/repository"
	"github.com/Astemirdum/booktracker/books/internal/repository/cache"
	"github.com/Astemirdum/booktracker/books/internal/server"
	"github.com/Astemirdum/booktracker/books/internal/service"
	"github.com/Astemirdum/booktracker/books/migrations"
	"github.com/Astemirdum/booktracker/pkg/kafka"
	"github.com/Astemirdum/booktracker/pkg/logger"
	"github.com/Astemirdum/booktracker/pkg/mailer"
	"github.com/Astemirdum/booktracker/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "booktracker")
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}

	var statsCache service.StatsCache = cache.Noop{}
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("redis init", zap.Error(err))
		}
		defer rdb.Close() //nolint:errcheck
		statsCache = cache.NewStatsCache(rdb, cfg.Redis.TTL, log)
	}

	notifier, closeNotifier := newNotifier(cfg, log)

	svc := service.NewService(repository.NewRepository(db, log), notifier, statsCache, log)
	dashboard := service.NewDashboard(repository.NewStatsRepository(db, log), statsCache, log)

	h := handler.New(svc, dashboard, []byte(cfg.JWTSecret), log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if err = closeNotifier(); err != nil {
		log.Error("notifier close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

// newNotifier prefers Kafka, then direct SMTP, then logging only.
func newNotifier(cfg *config.Config, log *zap.Logger) (service.Notifier, func() error) {
	noop := func() error { return nil }
	switch {
	case cfg.Kafka.Enabled():
		producer, err := kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewAsyncProducer", zap.Error(err))
		}
		n := notify.NewKafkaNotifier(producer, log)
		return n, n.Close
	case cfg.Mail.Enabled():
		return notify.NewMailNotifier(mailer.New(cfg.Mail, log)), noop
	default:
		log.Warn("neither kafka nor smtp configured, book-added notifications are only logged")
		return notify.NewLogNotifier(log), noop
	}
}
