package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/internal/comanda"
	"github.com/comandaclub/comanda/internal/events"
	"github.com/comandaclub/comanda/internal/mongo"
	"github.com/comandaclub/comanda/internal/monitor"
	"github.com/comandaclub/comanda/pkg"
	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
)

const (
	appNamespace = "COMANDA"
	appName      = "comanda"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)
	menuRepo := mongo.NewMenuRepo(db)
	reportRepo := mongo.NewReportRepo(db)

	workflow := orderstatus.FromConfig(config.GetStringOrDef("workflow.model", "four-stage"))

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	cache := comanda.NewOrderStateCache(orderRepo, logger)

	hub := monitor.NewHub(logger)
	cache.SetBroadcaster(hub)

	// Shared identity for published events, so the subscriber can drop
	// this instance's own events when they come back off the topic.
	origin := uuid.New().String()

	orderSub := events.NewOrderEventSubscriber(sub, cache, origin, logger)

	hd := comanda.HandlerDeps{
		Repo:       orderRepo,
		MenuRepo:   menuRepo,
		ReportRepo: reportRepo,
		Cache:      cache,
		Publisher:  pub,
		Workflow:   workflow,
		Origin:     origin,
	}

	handler := comanda.NewHandler(hd, config, logger)
	sseHandler := monitor.NewSSEHandler(hub, cache, workflow, logger)

	indexLifecycle := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := orderRepo.EnsureIndexes(ctx); err != nil {
				return err
			}
			return menuRepo.EnsureIndexes(ctx)
		},
	}

	cacheLifecycle := apt.LifecycleHooks{
		OnStart: cache.Warm,
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		indexLifecycle,
		cacheLifecycle,
		orderSub,
		publisherLifecycle,
		subLifecycle,
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler, sseHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
