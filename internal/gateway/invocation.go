package gateway

import (
	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/internal/commands"
)

// InvocationFromInteraction converts a slash command interaction. Other
// interaction types (autocomplete, components, modals) report false.
func InvocationFromInteraction(ic *discordgo.InteractionCreate) (commands.Invocation, bool) {
	if ic == nil || ic.Interaction == nil || ic.Type != discordgo.InteractionApplicationCommand {
		return commands.Invocation{}, false
	}
	data := ic.ApplicationCommandData()

	inv := commands.Invocation{
		Command:     data.Name,
		GuildID:     ic.GuildID,
		Strings:     map[string]string{},
		Attachments: map[string]commands.Attachment{},
	}
	switch {
	case ic.Member != nil:
		inv.MemberRoles = append([]string(nil), ic.Member.Roles...)
		if ic.Member.User != nil {
			inv.UserID = ic.Member.User.ID
		}
	case ic.User != nil:
		inv.UserID = ic.User.ID
	}

	for _, opt := range data.Options {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			inv.Strings[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := opt.Value.(string)
			if data.Resolved == nil {
				continue
			}
			if att, ok := data.Resolved.Attachments[id]; ok && att != nil {
				inv.Attachments[opt.Name] = commands.Attachment{
					ID:          att.ID,
					URL:         att.URL,
					Filename:    att.Filename,
					ContentType: att.ContentType,
				}
			}
		}
	}
	return inv, true
}
