package gateway

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/angelmondragon/artx-bot/internal/commands"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

// Dispatcher runs one invocation to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv commands.Invocation, responder commands.Responder) string
}

// Handler feeds gateway interactions into the dispatcher, one goroutine each.
type Handler struct {
	ctx        context.Context
	dispatcher Dispatcher
	logg       *logger.Logger

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
}

// NewHandler derives every invocation context from ctx without inheriting its
// cancellation: an invocation that has started always runs to its terminal reply.
func NewHandler(ctx context.Context, dispatcher Dispatcher, logg *logger.Logger) *Handler {
	return &Handler{
		ctx:        context.WithoutCancel(ctx),
		dispatcher: dispatcher,
		logg:       logg,
	}
}

// OnInteraction is registered with discordgo.Session.AddHandler.
func (h *Handler) OnInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	h.handle(s, ic)
}

// OnReady logs the bot identity once the gateway session is up.
func (h *Handler) OnReady(s *discordgo.Session, r *discordgo.Ready) {
	if h.logg == nil || r == nil || r.User == nil {
		return
	}
	ctx := h.logg.WithFields(h.ctx, map[string]any{
		"bot_user": r.User.Username,
		"guilds":   len(r.Guilds),
	})
	h.logg.Info(ctx, "discord.ready")
}

func (h *Handler) handle(session InteractionSession, ic *discordgo.InteractionCreate) {
	inv, ok := InvocationFromInteraction(ic)
	if !ok {
		return
	}
	responder := NewResponder(session, ic.Interaction)

	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		h.refuse(inv, responder)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		h.dispatcher.Dispatch(h.ctx, inv, responder)
	}()
}

// refuse answers an interaction that arrived after draining began, so the
// user is never left on an unanswered interaction.
func (h *Handler) refuse(inv commands.Invocation, responder *Responder) {
	err := responder.Reply(h.ctx, commands.Message{Content: commands.GenericFailureText, Ephemeral: true})
	if h.logg == nil {
		return
	}
	ctx := h.logg.WithFields(h.ctx, map[string]any{
		"command": inv.Command,
		"user_id": inv.UserID,
	})
	if err != nil {
		h.logg.Error(ctx, "interaction.refused", err)
		return
	}
	h.logg.Warn(ctx, "interaction.refused")
}

// Drain stops accepting interactions and blocks until every in-flight
// invocation has finished. Interactions arriving afterwards get an immediate
// failure reply instead of being dispatched.
func (h *Handler) Drain() {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()
	h.wg.Wait()
}
