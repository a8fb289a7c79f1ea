package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/artx-bot/internal/commands"
	"github.com/angelmondragon/artx-bot/internal/entitlements"
	"github.com/angelmondragon/artx-bot/internal/gateway"
	"github.com/angelmondragon/artx-bot/pkg/config"
	"github.com/angelmondragon/artx-bot/pkg/discord"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

func main() {
	global := flag.Bool("global", false, "publish commands globally instead of to GUILD_ID")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "register-commands"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	catalog, err := entitlements.CatalogFromConfig(cfg.Tiers)
	if err != nil {
		logg.Error(ctx, "invalid tier configuration", err)
		os.Exit(1)
	}

	// Handlers never run here; only names, descriptions and options are published.
	registry, err := commands.NewRegistry(commands.Builtins(commands.BuiltinParams{
		Catalog:    catalog,
		ReviewTier: entitlements.ParseTier(cfg.Tiers.ReviewTier),
	})...)
	if err != nil {
		logg.Error(ctx, "invalid command registry", err)
		os.Exit(1)
	}

	client, err := discord.NewClient(ctx, cfg.Discord, logg)
	if err != nil {
		logg.Error(ctx, "failed to create discord client", err)
		os.Exit(1)
	}

	guildID := cfg.Discord.GuildID
	if *global {
		guildID = ""
	}
	ctx = logg.WithFields(ctx, map[string]any{"guild_id": guildID, "global": *global})
	logg.Info(ctx, "deploying slash commands")

	created, err := gateway.RegisterCommands(ctx, client.Session(), cfg.Discord.ApplicationID, guildID, registry)
	if err != nil {
		logg.Error(ctx, "failed to deploy slash commands", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "count", len(created)), "slash commands deployed")
}
