package main

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/config"
	"food-storefront/internal/notify"
	"food-storefront/internal/realtime"
	"food-storefront/internal/repository"
	"food-storefront/internal/scheduler"
	"food-storefront/internal/server"
	"food-storefront/internal/service"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app holds every long-lived component of the process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB

	hub      *realtime.Hub
	redis    *redis.Client
	bridge   *realtime.RedisBridge
	events   client.EventPublisher
	notifier notify.Notifier
	services server.Services
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := client.InitDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	reportRepo := repository.NewReportRepository(db)

	mpClient := client.NewMercadoPagoClient(&cfg.MercadoPago)
	gateway := client.NewMercadoPagoGateway(mpClient, &cfg.MercadoPago, cfg.BaseURL)

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		hub:    realtime.NewHub(logger, 0),
		events: client.NewKafkaPublisher(&cfg.Kafka),
	}

	var rt realtime.Publisher = a.hub
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.bridge = realtime.NewRedisBridge(a.redis, cfg.Redis.Channel, a.hub, logger)
		rt = a.bridge
	}

	var messages client.MessageSender
	if cfg.CallMeBot.Phone != "" && cfg.CallMeBot.ApiKey != "" {
		messages = client.NewCallMeBotClient(&cfg.CallMeBot)
	} else {
		logger.Warn("callmebot not configured, whatsapp notifications disabled")
	}

	a.notifier = notify.NewNotifier(rt, messages, a.events, logger)

	reportService, err := service.NewReportService(cfg.Report, orderRepo, productRepo, reportRepo, logger)
	if err != nil {
		return nil, err
	}

	a.services = server.Services{
		Auth:     service.NewAuthService(cfg.Admin),
		Session:  service.NewSessionService(sessionRepo),
		Cart:     service.NewCartService(cartRepo, productRepo),
		Product:  service.NewProductService(productRepo),
		Checkout: service.NewCheckoutService(db, gateway, cartRepo, orderRepo, a.notifier, logger),
		Order:    service.NewOrderService(db, gateway, orderRepo, productRepo, a.notifier, logger),
		Webhook:  service.NewWebhookService(db, gateway, orderRepo, webhookEventRepo, a.notifier, logger),
		Report:   reportService,
	}

	return a, nil
}

// startBridge relays the shared redis channel into the local hub until ctx
// is cancelled. It returns once the subscription is live.
func (a *app) startBridge(ctx context.Context, wg *sync.WaitGroup) error {
	if a.bridge == nil {
		return nil
	}

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.bridge.Run(ctx, ready); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("redis bridge stopped", slog.Any("error", err))
			errCh <- err
		}
	}()

	select {
	case <-ready:
		return nil
	case err := <-errCh:
		return fmt.Errorf("start redis bridge: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.services.Report.Location(), a.logger)
	err := s.Add("daily_report", a.cfg.Report.Schedule, func(ctx context.Context) error {
		_, err := a.services.Report.GenerateAndSave(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// close flushes pending notifications before releasing connections.
func (a *app) close() {
	a.notifier.Wait()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Error("close kafka publisher", slog.Any("error", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("close redis client", slog.Any("error", err))
		}
	}
	a.hub.Close()

	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
