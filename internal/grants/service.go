package grants

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
)

// GuildDirectory is the Discord REST surface needed to resolve and mutate members.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	GuildMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error
}

// Service grants tier roles to guild members.
type Service interface {
	GrantEntitlement(ctx context.Context, guildID, userID string, tier entitlements.Tier) error
}

type ServiceParams struct {
	Directory GuildDirectory
	Catalog   *entitlements.Catalog
	Logger    *logger.Logger
	Metrics   *metrics.BotMetrics
}

type service struct {
	directory GuildDirectory
	catalog   *entitlements.Catalog
	logg      *logger.Logger
	metrics   *metrics.BotMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier catalog required")
	}
	return &service{
		directory: params.Directory,
		catalog:   params.Catalog,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// GrantEntitlement resolves the guild and member, then adds the tier role.
// Failures are terminal for the event; nothing is retried.
func (s *service) GrantEntitlement(ctx context.Context, guildID, userID string, tier entitlements.Tier) error {
	tier = entitlements.ParseTier(string(tier))
	err := s.grant(ctx, strings.TrimSpace(guildID), strings.TrimSpace(userID), tier)
	s.metrics.IncGrant(string(tier), grantOutcome(err))
	return err
}

func (s *service) grant(ctx context.Context, guildID, userID string, tier entitlements.Tier) error {
	if s.directory == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "discord client not configured")
	}
	if guildID == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "guild id not configured")
	}
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeResolution, "user id is required")
	}

	if _, err := s.directory.Guild(ctx, guildID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeResolution, err, "resolve guild "+guildID)
	}
	member, err := s.directory.GuildMember(ctx, guildID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeResolution, err, "resolve member "+userID)
	}
	if member == nil {
		return pkgerrors.New(pkgerrors.CodeResolution, "member "+userID+" not found")
	}

	roleID, ok := s.catalog.RoleID(tier)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "no role configured for tier "+tier.String())
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"guild_id":        guildID,
			"discord_user_id": userID,
			"plan":            string(tier),
			"role_id":         roleID,
		})
	}

	for _, held := range member.Roles {
		if held == roleID {
			if s.logg != nil {
				s.logg.Info(logCtx, "entitlement.already_granted")
			}
			return nil
		}
	}

	if err := s.directory.GuildMemberRoleAdd(ctx, guildID, userID, roleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add role")
	}
	if s.logg != nil {
		s.logg.Info(logCtx, "entitlement.granted")
	}
	return nil
}

func grantOutcome(err error) string {
	if err == nil {
		return "granted"
	}
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}
