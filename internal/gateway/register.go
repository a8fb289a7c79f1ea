package gateway

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/internal/commands"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
)

// CommandOverwriter is the part of *discordgo.Session used to publish slash commands.
type CommandOverwriter interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, cmds []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// ApplicationCommands renders the registry as Discord command definitions.
func ApplicationCommands(reg *commands.Registry) []*discordgo.ApplicationCommand {
	var out []*discordgo.ApplicationCommand
	for _, cmd := range reg.Commands() {
		def := &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Type:        discordgo.ChatApplicationCommand,
		}
		for _, opt := range cmd.Options {
			def.Options = append(def.Options, &discordgo.ApplicationCommandOption{
				Type:        optionType(opt.Kind),
				Name:        opt.Name,
				Description: opt.Description,
				Required:    opt.Required,
			})
		}
		out = append(out, def)
	}
	return out
}

// RegisterCommands replaces the application's commands with the registry.
// An empty guildID publishes them globally.
func RegisterCommands(ctx context.Context, s CommandOverwriter, appID, guildID string, reg *commands.Registry) ([]*discordgo.ApplicationCommand, error) {
	appID = strings.TrimSpace(appID)
	if s == nil || appID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "discord application id and session required")
	}
	created, err := s.ApplicationCommandBulkOverwrite(appID, strings.TrimSpace(guildID), ApplicationCommands(reg), discordgo.WithContext(ctx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "overwrite application commands")
	}
	return created, nil
}

func optionType(kind commands.OptionKind) discordgo.ApplicationCommandOptionType {
	if kind == commands.OptionAttachment {
		return discordgo.ApplicationCommandOptionAttachment
	}
	return discordgo.ApplicationCommandOptionString
}
