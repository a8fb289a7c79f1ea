package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/artx-bot/api/routes"
	"github.com/angelmondragon/artx-bot/internal/checkout"
	"github.com/angelmondragon/artx-bot/internal/commands"
	"github.com/angelmondragon/artx-bot/internal/entitlements"
	"github.com/angelmondragon/artx-bot/internal/gateway"
	"github.com/angelmondragon/artx-bot/internal/grants"
	"github.com/angelmondragon/artx-bot/internal/ratelimit"
	stripewebhook "github.com/angelmondragon/artx-bot/internal/webhooks/stripe"
	"github.com/angelmondragon/artx-bot/pkg/config"
	"github.com/angelmondragon/artx-bot/pkg/discord"
	"github.com/angelmondragon/artx-bot/pkg/instance"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
	"github.com/angelmondragon/artx-bot/pkg/openai"
	"github.com/angelmondragon/artx-bot/pkg/redis"
	"github.com/angelmondragon/artx-bot/pkg/stripe"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "artx-bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "artx-bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := entitlements.CatalogFromConfig(cfg.Tiers)
	if err != nil {
		logg.Error(ctx, "invalid tier configuration", err)
		os.Exit(1)
	}
	completer := openai.NewClient(cfg.OpenAI)
	logConfigurationState(ctx, logg, cfg, completer, catalog)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	botMetrics := metrics.NewBotMetrics(reg)

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to create stripe client", err)
		os.Exit(1)
	}

	var (
		discordClient *discord.Client
		directory     grants.GuildDirectory
	)
	if dc, err := discord.NewClient(ctx, cfg.Discord, logg); err != nil {
		logg.Warn(ctx, "discord disabled: "+err.Error())
	} else {
		discordClient = dc
		directory = dc
	}

	var limiter commands.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "redis unavailable, command rate limiting disabled", err)
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logg.Error(context.Background(), "error closing redis", err)
				}
			}()
			policy := ratelimit.NewPolicy("commands", cfg.RateLimit.CommandWindow, cfg.RateLimit.CommandLimit)
			if l := ratelimit.New(redisClient, policy, logg); l != nil {
				limiter = l
			}
		}
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Stripe:     stripeClient,
		Catalog:    catalog,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	grantService, err := grants.NewService(grants.ServiceParams{
		Directory: directory,
		Catalog:   catalog,
		Logger:    logg,
		Metrics:   botMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create grant service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Grantor: grantService,
		GuildID: cfg.Discord.GuildID,
		Logger:  logg,
		Metrics: botMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	registry, err := commands.NewRegistry(commands.Builtins(commands.BuiltinParams{
		Catalog:    catalog,
		Completer:  completer,
		Checkout:   checkoutService,
		ReviewTier: entitlements.ParseTier(cfg.Tiers.ReviewTier),
	})...)
	if err != nil {
		logg.Error(ctx, "invalid command registry", err)
		os.Exit(1)
	}

	dispatcher, err := commands.NewDispatcher(commands.DispatcherParams{
		Registry: registry,
		Catalog:  catalog,
		Limiter:  limiter,
		Logger:   logg,
		Metrics:  botMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create dispatcher", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			WebhookService: webhookService,
			Stripe:         stripeClient,
			Gatherer:       reg,
			Metrics:        botMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info(logg.WithFields(gctx, map[string]any{
			"env":      cfg.App.Env,
			"addr":     addr,
			"instance": instance.GetID(),
		}), "starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if discordClient != nil {
		handler := gateway.NewHandler(gctx, dispatcher, logg)
		session := discordClient.Session()
		session.AddHandler(handler.OnReady)
		session.AddHandler(handler.OnInteraction)

		g.Go(func() error {
			if err := discordClient.Open(); err != nil {
				// Webhooks keep being served; only slash commands are unavailable.
				logg.Error(gctx, "failed to open discord gateway", err)
				return nil
			}
			logg.Info(gctx, "discord gateway connected")

			if cfg.Discord.RegisterCommandsOnStart {
				created, err := gateway.RegisterCommands(gctx, session, cfg.Discord.ApplicationID, cfg.Discord.GuildID, registry)
				if err != nil {
					logg.Error(gctx, "failed to register slash commands", err)
				} else {
					logg.Info(logg.WithField(gctx, "count", len(created)), "slash commands registered")
				}
			}

			<-gctx.Done()
			handler.Drain()
			return discordClient.Close()
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "bot stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "bot stopped")
}

// logConfigurationState reports which credentials are present without
// revealing their values.
func logConfigurationState(ctx context.Context, logg *logger.Logger, cfg *config.Config, completer *openai.Client, catalog *entitlements.Catalog) {
	fields := cfg.Summary()
	fields[config.EnvOpenAIModel] = completer.Model()
	fields["sellable_tiers"] = len(catalog.Sellable())
	logg.Info(logg.WithFields(ctx, fields), "configuration check")

	if cfg.App.IsProd() && cfg.Stripe.Environment() != "live" {
		logg.Warn(ctx, "running in prod against the stripe test environment")
	}
}
