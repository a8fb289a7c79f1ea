package discord

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/pkg/config"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

var errTokenRequired = errors.New("discord bot token is required")

// Client owns the bot session used for both the gateway and REST calls.
type Client struct {
	session *discordgo.Session
}

// NewClient prepares a bot session; the gateway is not opened until Open.
func NewClient(ctx context.Context, cfg config.DiscordConfig, logg *logger.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	if logg != nil {
		logg.Info(ctx, "discord session prepared")
	}
	return &Client{session: session}, nil
}

// Session exposes the underlying discordgo session for handler registration.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// Open connects to the gateway.
func (c *Client) Open() error {
	return c.session.Open()
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// Guild fetches a guild over REST.
func (c *Client) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	return c.session.Guild(guildID, discordgo.WithContext(ctx))
}

// GuildMember fetches one member of a guild over REST.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	return c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
}

// GuildMemberRoleAdd adds a role to a member. Discord treats re-adding as a no-op.
func (c *Client) GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error {
	return c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}
