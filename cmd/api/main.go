package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarahchiu0928/paganini-server/internal/config"
	"github.com/sarahchiu0928/paganini-server/internal/coupons"
	"github.com/sarahchiu0928/paganini-server/internal/httpx"
	kafkax "github.com/sarahchiu0928/paganini-server/internal/kafka"
	"github.com/sarahchiu0928/paganini-server/internal/orders"
	"github.com/sarahchiu0928/paganini-server/internal/postgres"
	"github.com/sarahchiu0928/paganini-server/internal/redisx"
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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for order.placed
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Repos & handlers
	orderRepo := &orders.Repo{DB: db}
	couponRepo := &coupons.Repo{DB: db}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service:  orderRepo,
		Producer: prod,
		Redis:    rdb,
		Name:     cfg.ServiceName,
	}
	oh.Register(router)
	ch := &httpx.CouponsHandler{
		Service: couponRepo,
		Redis:   rdb,
	}
	ch.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
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
	prod.Close()      // close inbox -> flush & close writer
	prod.WaitClosed() // drain before the root context goes away
}
