package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/angelmondragon/artx-bot/internal/checkout"
	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
)

const (
	CommandDaily  = "daily"
	CommandCoach  = "coach"
	CommandReview = "review"

	upgradePrefix = "upgrade_"

	OptionQuestion = "question"
	OptionClip     = "clip"
)

const (
	coachSystemPrompt  = "You are a Fortnite pro coach. Give practical, concise advice."
	reviewSystemPrompt = "You are a professional Fortnite VOD reviewer. Give clear, actionable improvement tips."
)

// EmptyAnswerText is sent when the completion came back blank.
const EmptyAnswerText = "🤔 I couldn't come up with an answer this time. Try rephrasing your question."

var dailyTips = []string{
	"Always build before you shoot for cover.",
	"Take high ground before engaging.",
	"Rotate early to avoid storm pressure.",
	"Carry at least two healing items.",
	"Edit builds to control fights.",
}

// DailyTips returns a copy of the tip list used by /daily.
func DailyTips() []string {
	out := make([]string, len(dailyTips))
	copy(out, dailyTips)
	return out
}

// Completer produces a text answer for a system instruction and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type BuiltinParams struct {
	Catalog    *entitlements.Catalog
	Completer  Completer
	Checkout   checkout.Service
	ReviewTier entitlements.Tier
	// Intn picks the tip index; defaults to math/rand/v2.
	Intn func(n int) int
}

// UpgradeCommandName is the slash command that sells tier.
func UpgradeCommandName(tier entitlements.Tier) string {
	return upgradePrefix + string(tier)
}

// Builtins returns the bot's slash commands: daily, coach, review and one
// upgrade command per sellable tier.
func Builtins(params BuiltinParams) []Command {
	intn := params.Intn
	if intn == nil {
		intn = rand.IntN
	}
	reviewTier := entitlements.ParseTier(string(params.ReviewTier))

	cmds := []Command{
		{
			Name:        CommandDaily,
			Description: "Get a random Fortnite tip",
			Handle: func(ctx context.Context, inv Invocation, reply *Lifecycle) error {
				tip := dailyTips[intn(len(dailyTips))]
				return reply.Reply(ctx, "💡 Daily Tip: "+tip, false)
			},
		},
		{
			Name:        CommandCoach,
			Description: "Ask Artx a Fortnite question",
			Defer:       true,
			RateLimited: true,
			Options: []Option{
				{Name: OptionQuestion, Description: "Your Fortnite question", Kind: OptionString, Required: true},
				{Name: OptionClip, Description: "Optional Fortnite clip for analysis", Kind: OptionAttachment},
			},
			Handle: func(ctx context.Context, inv Invocation, reply *Lifecycle) error {
				question := inv.String(OptionQuestion)
				if question == "" {
					return pkgerrors.New(pkgerrors.CodeValidation, "question is required")
				}
				prompt := question
				if clip, ok := inv.Attachment(OptionClip); ok {
					prompt += "\nAnalyze this Fortnite clip: " + clip.URL
				}
				return answer(ctx, params.Completer, reply, coachSystemPrompt, prompt)
			},
		},
		{
			Name:               CommandReview,
			Description:        "Get a premium Fortnite VOD review",
			Gate:               reviewTier,
			RequiredAttachment: OptionClip,
			Defer:              true,
			RateLimited:        true,
			Options: []Option{
				{Name: OptionClip, Description: "Upload your Fortnite VOD", Kind: OptionAttachment, Required: true},
			},
			Handle: func(ctx context.Context, inv Invocation, reply *Lifecycle) error {
				clip, ok := inv.Attachment(OptionClip)
				if !ok {
					return pkgerrors.New(pkgerrors.CodeValidation, "clip is required")
				}
				prompt := "Review this Fortnite clip and give improvement advice:\n" + clip.URL
				return answer(ctx, params.Completer, reply, reviewSystemPrompt, prompt)
			},
		},
	}

	for _, spec := range params.Catalog.Sellable() {
		tier := spec.Tier
		display := spec.DisplayName
		cmds = append(cmds, Command{
			Name:        UpgradeCommandName(tier),
			Description: fmt.Sprintf("Upgrade to Artx %s", display),
			Defer:       true,
			Ephemeral:   true,
			Handle: func(ctx context.Context, inv Invocation, reply *Lifecycle) error {
				if params.Checkout == nil {
					return pkgerrors.New(pkgerrors.CodeConfiguration, "checkout not configured")
				}
				url, err := params.Checkout.CreateCheckoutSession(ctx, inv.UserID, tier)
				if err != nil {
					return err
				}
				return reply.FollowUp(ctx, fmt.Sprintf("💳 **Upgrade to Artx %s**\n%s", strings.ToUpper(string(tier)), url))
			},
		})
	}
	return cmds
}

func answer(ctx context.Context, completer Completer, reply *Lifecycle, system, prompt string) error {
	if completer == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "ai completer not configured")
	}
	text, err := completer.Complete(ctx, system, prompt)
	if err != nil {
		return err
	}
	chunks := SplitMessage(text, DiscordMessageLimit)
	if strings.TrimSpace(text) == "" {
		chunks = []string{EmptyAnswerText}
	}
	for _, chunk := range chunks {
		if err := reply.FollowUp(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}
