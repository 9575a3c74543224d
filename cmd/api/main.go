package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binwahab-store/internal/client"
	"binwahab-store/internal/config"
	"binwahab-store/internal/logger"
	"binwahab-store/internal/repository"
	"binwahab-store/internal/server"
	"binwahab-store/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Environment.Name)

	db, err := client.InitDBClient(cfg.Database, log)
	if err != nil {
		log.Error("init database", "error", err)
		os.Exit(1)
	}

	paypalClient := client.NewPaypalClient(&cfg.Paypal)
	braintreeClient := client.NewBraintreeClient(&cfg.BrainTree)
	curlecClient := client.NewCurlecClient(&cfg.Curlec)
	mailClient := client.NewMailClient(&cfg.Mail, log)

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	shippingRepo := repository.NewShippingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	userRepo := repository.NewUserRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.Database.Seed {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Error("seed catalog", "error", err)
			os.Exit(1)
		}
	}

	notifier := service.NewNotifier(mailClient, userRepo, log)

	orderService := service.NewOrderService(
		db, log,
		cfg.Store.TaxRate, cfg.Store.Currency,
		cartRepo,
		addressRepo,
		shippingRepo,
		orderRepo,
		inventoryRepo,
		userRepo,
		notifier,
	)
	reconcileService := service.NewReconcileService(db, log, orderRepo, inventoryRepo, webhookEventRepo, notifier)
	paymentService := service.NewPaymentService(
		log,
		paypalClient, curlecClient, braintreeClient,
		cfg.BaseURL, cfg.FrontendURL,
		orderRepo,
		reconcileService,
	)
	returnService := service.NewReturnService(
		db, log,
		cfg.Store.ReturnWindowDays,
		orderRepo,
		returnRepo,
		inventoryRepo,
		paypalClient, curlecClient, braintreeClient,
		notifier,
	)

	srv := server.NewServer(log, cfg, server.Services{
		Cart:      service.NewCartService(cartRepo, productRepo),
		Address:   service.NewAddressService(addressRepo),
		Order:     orderService,
		Payment:   paymentService,
		Return:    returnService,
		Inventory: service.NewInventoryService(db, log, productRepo, inventoryRepo),
		Dashboard: service.NewDashboardService(log, orderRepo, returnRepo, productRepo),
		User:      service.NewUserService(userRepo),
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.Info("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", "error", err)
	}
	if err := client.CloseDBClient(db); err != nil {
		log.Error("close database", "error", err)
	}
	log.Info("shutdown complete")
}
