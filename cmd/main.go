package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/potlabs/dutchAuctionEngine/internal/auction/application"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	httpinfra "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/http"
	ledgermemory "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/ledger/memory"
	ledgerpg "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/ledger/postgres"
	repopg "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/repository/postgres"
	wsinfra "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/websocket"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/clock"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/config"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/db"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/db/migrations"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/httpserver"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/logger"
	sharedws "github.com/potlabs/dutchAuctionEngine/internal/shared/websocket"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting dutchAuctionEngine server...")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// collaborators
	var (
		assets   domain.AssetLedger
		payments domain.PaymentLedger
	)
	switch cfg.Auction.LedgerMode {
	case "memory":
		mem := ledgermemory.NewLedger(cfg.CustodyUUID())
		assets, payments = mem, mem
		log.Warn("Using in-memory ledger, balances are not persisted")
	default:
		pg := ledgerpg.NewLedger(pool, cfg.CustodyUUID(), cfg.Auction.Currency)
		assets, payments = pg, pg
	}
	sysClock := clock.System{}

	// repositories and application layer
	auctionRepo := repopg.NewAuctionRepository(pool)
	bidRepo := repopg.NewBidRepository(pool)
	registry := application.NewRegistry()
	if _, err := application.RestoreActiveAuctions(ctx, registry, auctionRepo, assets, payments, sysClock); err != nil {
		log.Fatal("Failed to restore active auctions", zap.Error(err))
	}

	service := application.NewAuctionService(
		registry,
		application.NewCreateAuctionUseCase(registry, auctionRepo, pool, assets, payments, sysClock),
		application.NewOpenAuctionUseCase(registry, auctionRepo, pool),
		application.NewCloseAuctionUseCase(registry, auctionRepo, pool),
		application.NewPlaceBidUseCase(registry, auctionRepo, bidRepo, pool),
		application.NewGetAuctionStateUseCase(registry, auctionRepo),
	)

	// websocket hub and auction handlers
	hub := sharedws.NewHub()
	go hub.Run(ctx)

	broadcaster := wsinfra.NewBroadcaster(hub)
	wsHandler := wsinfra.NewAuctionWSHandler(service, hub, broadcaster)
	go wsHandler.ListenForMessages(ctx)

	// HTTP surface
	server := httpserver.NewServer()
	httpinfra.NewAuctionHTTPHandler(service, broadcaster).RegisterRoutes(server.App())
	wsinfra.RegisterRoutes(ctx, server.App(), hub, wsHandler)

	if err := server.Start(cfg.Server.Addr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
