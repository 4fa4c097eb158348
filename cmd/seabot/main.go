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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "seabot/docs"
	"seabot/internal/common/cache"
	"seabot/internal/common/clock"
	"seabot/internal/common/config"
	"seabot/internal/common/logger"
	"seabot/internal/features/bot"
	commanddelivery "seabot/internal/features/command/delivery/http"
	commandRepo "seabot/internal/features/command/repository/postgres"
	commandService "seabot/internal/features/command/service"
	"seabot/internal/features/commands"
	"seabot/internal/features/dashboard"
	"seabot/internal/features/gate"
	"seabot/internal/features/media"
	mediadelivery "seabot/internal/features/media/delivery/http"
	"seabot/internal/features/outbox"
	"seabot/internal/features/provider"
	userdelivery "seabot/internal/features/user/delivery/http"
	userRepo "seabot/internal/features/user/repository/postgres"
	userService "seabot/internal/features/user/service"
	"seabot/internal/platform/postgres"
	"seabot/internal/platform/redis"
	"seabot/internal/platform/whatsapp"
	"seabot/internal/workers"
)

// @title           SeaBot Dashboard API
// @version         1.0
// @description     Operator API for the SeaBot WhatsApp bot: users, limits, commands, statistics and the outbox.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.basic BasicAuth

// @tag.name users
// @tag.description Bot users and identity links

// @tag.name limits
// @tag.description Daily usage limits

// @tag.name commands
// @tag.description Command runtime settings

// @tag.name stats
// @tag.description Dashboard aggregates

// @tag.name outbox
// @tag.description Messages queued for the bot

const janitorInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("SeaBot stopped with error")
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		ServiceName: "seabot",
		Debug:       cfg.Debug,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
	}); err != nil {
		return err
	}

	log.Info().
		Str("bot", cfg.Bot.Name).
		Strs("prefixes", cfg.Bot.Prefixes).
		Bool("debug", cfg.Debug).
		Msg("Starting SeaBot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := postgres.NewClient(ctx, cfg.Postgres, prometheus.DefaultRegisterer, logger.Component("postgres"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer postgresClient.Close()

	if err := postgresClient.Migrate(ctx); err != nil {
		return err
	}
	log.Info().Msg("Database connection established")

	redisClient, err := redis.CreateRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)
	clk := clock.NewRealClock()

	userRepository := userRepo.NewPostgresRepository(postgresClient.DB())
	commandRepository := commandRepo.NewPostgresRepository(postgresClient.DB())

	resolver := userService.NewResolver(userRepository, userService.ResolverConfig{
		OwnerIDs:       cfg.Bot.OwnerIDs,
		DailyLimit:     cfg.Bot.DailyLimit,
		DefaultBalance: cfg.Bot.DefaultBalance,
		DefaultBonus:   cfg.Bot.DefaultBonus,
		NameMerge:      cfg.Bot.NameMerge,
	}, clk, logger.Component("identity"))
	ledger := userService.NewLedger(userRepository, clk, logger.Component("ledger"))
	userSvc := userService.NewUserService(userRepository, resolver, ledger)
	commandSvc := commandService.NewCommandService(commandRepository, cacheService, logger.Component("commands"))

	g, gctx := errgroup.WithContext(ctx)

	var gateStore gate.Store
	switch cfg.RateLimit.Store {
	case "redis":
		gateStore = gate.NewRedisStore(redisClient)
	default:
		memoryStore := gate.NewMemoryStore()
		g.Go(func() error {
			memoryStore.RunJanitor(gctx, janitorInterval, clk.Now)
			return nil
		})
		gateStore = memoryStore
	}
	rateGate := gate.New(gateStore, gate.Config{
		Cooldown:    cfg.Bot.Cooldown,
		PerMinute:   cfg.RateLimit.PerMinute,
		PerHour:     cfg.RateLimit.PerHour,
		BanDuration: cfg.RateLimit.BanDuration,
	}, clk, logger.Component("gate"))

	mediaStore := media.NewStore(redisClient, cfg.Media.PublicURL, cfg.Media.TTL)

	registry := commandService.NewRegistry()
	commands.Register(registry, commands.Deps{
		Config:   cfg,
		Resolver: resolver,
		Ledger:   ledger,
		Commands: commandSvc,
		HTTP:     provider.NewClient(cfg.APIs.Timeout),
		Log:      logger.Component("handler"),
		Media:    mediaStore,
	})
	if err := commandSvc.Seed(ctx, registry); err != nil {
		return err
	}
	log.Info().Int("commands", len(registry.Descriptors())).Msg("Commands registered")

	waClient, err := whatsapp.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer waClient.Close()

	pipeline := bot.NewPipeline(bot.Deps{
		Prefixes:   cfg.Bot.Prefixes,
		Users:      userRepository,
		Resolver:   resolver,
		Ledger:     ledger,
		Gate:       rateGate,
		Registry:   registry,
		Commands:   commandSvc,
		Dispatcher: commandService.NewDispatcher(cfg.Bot.CommandTimeout, logger.Component("dispatcher")),
		Messenger:  waClient,
		Clock:      clk,
		Log:        logger.Component("pipeline"),
	})
	waClient.OnMessage(func(msg whatsapp.Message) {
		pipeline.Submit(gctx, msg)
	})
	if cfg.Bot.NotifyOwner {
		waClient.OnConnected(func() {
			bot.AnnounceOnline(gctx, waClient, cfg.Bot.Name, cfg.Bot.OwnerIDs, logger.Component("pipeline"))
		})
	}
	if err := waClient.Connect(ctx); err != nil {
		return err
	}

	g.Go(func() error {
		return workers.NewLimitResetScheduler(ledger, clk, cfg.Location(), logger.Component("limit_reset")).Run(gctx)
	})
	if cfg.Outbox.Enabled {
		g.Go(func() error {
			return workers.NewOutboxWorker(redisClient, waClient, cacheService, cfg.Outbox.Consumer, logger.Component("outbox")).Run(gctx)
		})
	}

	router := dashboard.NewRouter(dashboard.RouterDeps{
		Config: cfg,
		Handlers: []dashboard.RouteRegistrar{
			userdelivery.NewUserHandler(userSvc, logger.Component("dashboard")),
			commanddelivery.NewCommandHandler(commandSvc, logger.Component("dashboard")),
			dashboard.NewHandler(
				dashboard.NewStatsService(userRepository, commandRepository, cacheService, clk, logger.Component("stats")),
				outbox.NewPublisher(redisClient),
				logger.Component("dashboard"),
			),
		},
		Public: []dashboard.RouteRegistrar{
			mediadelivery.NewMediaHandler(mediaStore, logger.Component("media")),
		},
		Ready: map[string]dashboard.Pinger{
			"postgres": postgresClient.HealthCheck,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Connected: waClient.IsConnected,
		Log:       logger.Component("http"),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting dashboard server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		waClient.Disconnect()
		pipeline.Wait()
		return nil
	})

	err = g.Wait()
	log.Info().Msg("SeaBot exited")
	return err
}
