package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
)

// User-visible texts. Each failure class reads differently.
const (
	GenericFailureText = "⚠️ Something went wrong."
	RateLimitedText    = "⏳ Slow down! You're sending commands too fast. Try again in a minute."
)

// Outcomes recorded per invocation.
const (
	OutcomeOK                = "ok"
	OutcomeUnknown           = "unknown_command"
	OutcomeDenied            = "denied"
	OutcomeMissingAttachment = "missing_attachment"
	OutcomeRateLimited       = "rate_limited"
	OutcomeError             = "error"
	OutcomePanic             = "panic"
)

// DenialText is the upgrade directive shown to members without the gate role.
func DenialText(command string, tier entitlements.Tier) string {
	return fmt.Sprintf("🔒 **%s only.** Use `/%s` to unlock `/%s`.", strings.ToUpper(string(tier)), UpgradeCommandName(tier), command)
}

// MissingAttachmentText asks the caller to upload the required file.
func MissingAttachmentText(command, option string) string {
	return fmt.Sprintf("❗ Please attach a `%s` to use `/%s`.", option, command)
}

// RateLimiter throttles invocations; *ratelimit.Limiter satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context, command, userID string) bool
}

type DispatcherParams struct {
	Registry *Registry
	Catalog  *entitlements.Catalog
	Limiter  RateLimiter
	Logger   *logger.Logger
	Metrics  *metrics.BotMetrics
}

// Dispatcher routes invocations to registered commands and guarantees every
// invocation ends with a terminal response.
type Dispatcher struct {
	registry *Registry
	catalog  *entitlements.Catalog
	limiter  RateLimiter
	logg     *logger.Logger
	metrics  *metrics.BotMetrics
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "command registry required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier catalog required")
	}
	return &Dispatcher{
		registry: params.Registry,
		catalog:  params.Catalog,
		limiter:  params.Limiter,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Dispatch handles one invocation end to end and returns its outcome label.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, responder Responder) (outcome string) {
	start := time.Now()
	reply := NewLifecycle(responder)

	if d.logg != nil {
		ctx = d.logg.WithCommand(ctx, inv.Command)
		ctx = d.logg.WithUserID(ctx, inv.UserID)
		ctx = d.logg.WithGuildID(ctx, inv.GuildID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.fail(ctx, reply, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", rec)))
			outcome = OutcomePanic
		}
		reply.Complete()
		d.metrics.ObserveCommand(inv.Command, outcome, time.Since(start))
		if d.logg != nil {
			d.logg.Info(d.logg.WithFields(ctx, map[string]any{
				"outcome":     outcome,
				"duration_ms": time.Since(start).Milliseconds(),
			}), "command.complete")
		}
	}()

	cmd, ok := d.registry.Lookup(inv.Command)
	if !ok {
		d.fail(ctx, reply, pkgerrors.New(pkgerrors.CodeValidation, "unknown command"))
		return OutcomeUnknown
	}

	if cmd.Gate != entitlements.TierNone {
		if _, configured := d.catalog.RoleID(cmd.Gate); !configured {
			d.fail(ctx, reply, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("gate tier %s has no role", cmd.Gate)))
			return OutcomeError
		}
		if !d.catalog.HasEntitlement(inv.MemberRoles, cmd.Gate) {
			d.send(ctx, reply.Reply(ctx, DenialText(cmd.Name, cmd.Gate), true))
			return OutcomeDenied
		}
	}

	if cmd.RequiredAttachment != "" {
		if _, ok := inv.Attachment(cmd.RequiredAttachment); !ok {
			d.send(ctx, reply.Reply(ctx, MissingAttachmentText(cmd.Name, cmd.RequiredAttachment), true))
			return OutcomeMissingAttachment
		}
	}

	if cmd.RateLimited && d.limiter != nil && !d.limiter.Allow(ctx, cmd.Name, inv.UserID) {
		d.send(ctx, reply.Reply(ctx, RateLimitedText, true))
		return OutcomeRateLimited
	}

	if cmd.Defer {
		if err := reply.Defer(ctx, cmd.Ephemeral); err != nil {
			d.fail(ctx, reply, err)
			return OutcomeError
		}
	}

	if err := cmd.Handle(ctx, inv, reply); err != nil {
		d.fail(ctx, reply, err)
		return OutcomeError
	}
	return OutcomeOK
}

// fail logs err and sends the generic failure through whichever channel the
// lifecycle still allows.
func (d *Dispatcher) fail(ctx context.Context, reply *Lifecycle, err error) {
	if d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"error_code": string(pkgerrors.CodeOf(err)),
			"state":      reply.State().String(),
		})
		d.logg.Error(logCtx, "command.failed", err)
	}

	switch reply.State() {
	case StateAcknowledged:
		d.send(ctx, reply.FollowUp(ctx, GenericFailureText))
	case StateReceived:
		d.send(ctx, reply.Reply(ctx, GenericFailureText, true))
	}
}

func (d *Dispatcher) send(ctx context.Context, err error) {
	if err != nil && d.logg != nil {
		d.logg.Error(ctx, "command.response_failed", err)
	}
}
