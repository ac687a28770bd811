package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/cart"
	"github.com/ariefcatur/go-retail-gudang/internal/config"
	"github.com/ariefcatur/go-retail-gudang/internal/events"
	"github.com/ariefcatur/go-retail-gudang/internal/gudang"
	"github.com/ariefcatur/go-retail-gudang/internal/httpx"
	kafkax "github.com/ariefcatur/go-retail-gudang/internal/kafka"
	"github.com/ariefcatur/go-retail-gudang/internal/pos"
	"github.com/ariefcatur/go-retail-gudang/internal/postgres"
	"github.com/ariefcatur/go-retail-gudang/internal/redisx"
	"github.com/ariefcatur/go-retail-gudang/internal/relay"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("schema applied")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: transaksi paid & stock credited (dua topic berbeda)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicTransactionPaid, 1024)
	pPaid.Start(ctx)
	pCredit := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicStockCredited, 1024)
	pCredit.Start(ctx)

	// Draft store
	var drafts relay.DraftStore
	switch cfg.DraftStore {
	case "memory":
		drafts = relay.NewMemoryDrafts(cfg.DraftTTL)
	default:
		drafts = relay.NewRedisDrafts(rdb, cfg.DraftTTL)
	}
	carts := &cart.Store{Redis: rdb, TTL: cfg.CartTTL}

	// Repo, service & handler
	router := httpx.NewRouter(cfg.CORSOrigins)
	(&httpx.InventoryHandler{Repo: &gudang.Repo{DB: db}}).Register(router)
	(&httpx.POSHandler{Repo: &pos.Repo{DB: db}, Producer: pPaid, Service: cfg.ServiceName}).Register(router)
	(&httpx.TrackingHandler{
		Svc: &tracking.Service{
			Repo:        &tracking.Repo{DB: db},
			Producer:    pCredit,
			ServiceName: cfg.ServiceName,
		},
		WebhookSecret: cfg.CallbackSecret,
	}).Register(router)
	(&httpx.CartHandler{Store: carts, JWTSecret: []byte(cfg.JWTSecret)}).Register(router)
	(&httpx.RelayHandler{
		Svc: &relay.Service{
			Client:    relay.NewClient(cfg.RelayTimeout, cfg.RetailID),
			Suppliers: cfg.Suppliers,
			RetailID:  cfg.RetailID,
			Drafts:    drafts,
			Cart:      carts,
		},
		JWTSecret:      []byte(cfg.JWTSecret),
		CallbackSecret: cfg.CallbackSecret,
	}).Register(router)
	if cfg.CallbackSecret == "" {
		log.Println("CALLBACK_SECRET kosong: webhook dan callback supplier akan ditolak")
	}

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s (suppliers=%d, drafts=%s)", cfg.HTTPAddr, len(cfg.Suppliers), cfg.DraftStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPaid.Close() // tutup inbox -> flush & close writer
	pCredit.Close()
	cancel()
	pPaid.WaitClosed() // drain
	pCredit.WaitClosed()
}
