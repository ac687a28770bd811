package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-retail-gudang/internal/config"
	"github.com/ariefcatur/go-retail-gudang/internal/events"
	kafkax "github.com/ariefcatur/go-retail-gudang/internal/kafka"
	"github.com/ariefcatur/go-retail-gudang/internal/postgres"
	"github.com/ariefcatur/go-retail-gudang/internal/redisx"
	"github.com/ariefcatur/go-retail-gudang/internal/tracking"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis (dedup event_id)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: stock credited
	pCredit := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicStockCredited, 1024)
	pCredit.Start(ctx)

	// Service
	svc := &tracking.Service{
		Repo:        &tracking.Repo{DB: db},
		Redis:       rdb,
		Producer:    pCredit,
		ServiceName: cfg.ServiceName + "-tracking",
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.TrackingGroup, events.TopicShipmentEvents, cfg.TrackingWorker)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("tracking consumer started: group=%s topic=%s workers=%d", cfg.TrackingGroup, events.TopicShipmentEvents, cfg.TrackingWorker)
		if err := cons.Start(ctx, svc.HandleShipmentMessage); err != nil {
			log.Printf("consumer exit: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
	}
	log.Println("shutting down consumer...")
	cancel()
	<-done // workers selesai sebelum producer ditutup
	pCredit.Close()
	pCredit.WaitClosed()
}
