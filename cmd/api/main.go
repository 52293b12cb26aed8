package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/accounts"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/config"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/placement"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/postgres"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (order.placed)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// repos + engine
	catalogRepo := &catalog.Repo{DB: db}
	accountsRepo := &accounts.Repo{DB: db}
	ledger := &orders.Ledger{DB: db}
	engine := placement.NewEngine(catalogRepo, accountsRepo, ledger, cfg.CurrencyPrecision)

	verifier := &httpx.RedisTokenVerifier{Redis: rdb}
	validate := httpx.NewValidator()

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{
		Engine:   engine,
		Reader:   ledger,
		Producer: prod,
		Redis:    rdb,
		Validate: validate,
		Service:  cfg.ServiceName,
	}).Register(router, verifier)
	(&httpx.CatalogHandler{
		Catalog:  catalogRepo,
		Accounts: accountsRepo,
		Redis:    rdb,
		Validate: validate,
	}).Register(router, verifier)
	(&httpx.AddressesHandler{
		Store:    accountsRepo,
		Validate: validate,
	}).Register(router, verifier)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
