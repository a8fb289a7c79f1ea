package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/internal/commands"
)

// InteractionSession is the part of *discordgo.Session used to answer interactions.
type InteractionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Responder answers one interaction over the Discord REST API.
type Responder struct {
	session     InteractionSession
	interaction *discordgo.Interaction
}

var _ commands.Responder = (*Responder)(nil)

func NewResponder(session InteractionSession, interaction *discordgo.Interaction) *Responder {
	return &Responder{session: session, interaction: interaction}
}

func (r *Responder) Reply(ctx context.Context, msg commands.Message) error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg.Content,
			Flags:   flags(msg.Ephemeral),
		},
	}, discordgo.WithContext(ctx))
}

func (r *Responder) Defer(ctx context.Context, ephemeral bool) error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
}

func (r *Responder) FollowUp(ctx context.Context, msg commands.Message) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: msg.Content,
		Flags:   flags(msg.Ephemeral),
	}, discordgo.WithContext(ctx))
	return err
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
