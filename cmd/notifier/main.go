package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/config"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/mail"
	"github.com/Ashisharjun12/devfinder-final/internal/queue"
)

func main() {
	cfg := config.Load()

	lg, err := log.Init(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.RabbitURL == "" {
		lg.Fatal("RABBIT_URL is required")
	}
	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, cfg.RabbitBindKey)
	if err != nil {
		lg.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	sender := &mail.Sender{Log: lg}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("notifier up",
		zap.String("exchange", cfg.RabbitExchange),
		zap.String("queue", cfg.RabbitQueue),
		zap.String("key", cfg.RabbitBindKey),
		zap.Int("workers", cfg.RabbitConcurrency),
	)

	err = cons.Consume(ctx, cfg.RabbitConcurrency, func(ctx context.Context, d queue.Delivery) error {
		return sender.HandleEvent(log.WithRequestID(ctx, d.RequestID), d.Body)
	})
	if err != nil && ctx.Err() == nil {
		lg.Fatal("consumer stopped", zap.Error(err))
	}
	lg.Info("notifier stopped")
}
