package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/artx-bot/internal/commands"
	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

func reviewInteraction() *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "I1",
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "G1",
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: "U2"},
			Roles: []string{"R0", "R9"},
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "review",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "clip", Type: discordgo.ApplicationCommandOptionAttachment, Value: "A1"},
				{Name: "note", Type: discordgo.ApplicationCommandOptionString, Value: "box fight"},
			},
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Attachments: map[string]*discordgo.MessageAttachment{
					"A1": {ID: "A1", URL: "https://cdn.discordapp.com/a/clip.mp4", Filename: "clip.mp4", ContentType: "video/mp4"},
				},
			},
		},
	}}
}

func TestInvocationFromInteraction(t *testing.T) {
	inv, ok := InvocationFromInteraction(reviewInteraction())
	require.True(t, ok)

	assert.Equal(t, "review", inv.Command)
	assert.Equal(t, "U2", inv.UserID)
	assert.Equal(t, "G1", inv.GuildID)
	assert.Equal(t, []string{"R0", "R9"}, inv.MemberRoles)
	assert.Equal(t, "box fight", inv.String("note"))
	clip, ok := inv.Attachment("clip")
	require.True(t, ok)
	assert.Equal(t, commands.Attachment{ID: "A1", URL: "https://cdn.discordapp.com/a/clip.mp4", Filename: "clip.mp4", ContentType: "video/mp4"}, clip)
}

func TestInvocationFromDirectMessage(t *testing.T) {
	ic := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		User: &discordgo.User{ID: "U5"},
		Data: discordgo.ApplicationCommandInteractionData{Name: "daily"},
	}}

	inv, ok := InvocationFromInteraction(ic)
	require.True(t, ok)
	assert.Equal(t, "U5", inv.UserID)
	assert.Empty(t, inv.MemberRoles)
}

func TestInvocationIgnoresOtherInteractionTypes(t *testing.T) {
	_, ok := InvocationFromInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionMessageComponent}})
	assert.False(t, ok)
	_, ok = InvocationFromInteraction(nil)
	assert.False(t, ok)
}

type respondCall struct {
	resp *discordgo.InteractionResponse
}

type fakeSession struct {
	mu        sync.Mutex
	responses []respondCall
	followups []*discordgo.WebhookParams
	overwrite struct {
		appID, guildID string
		cmds           []*discordgo.ApplicationCommand
	}
	err error
}

func (f *fakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, respondCall{resp: resp})
	return f.err
}

func (f *fakeSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{Content: data.Content}, f.err
}

func (f *fakeSession) ApplicationCommandBulkOverwrite(appID string, guildID string, cmds []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.overwrite.appID = appID
	f.overwrite.guildID = guildID
	f.overwrite.cmds = cmds
	return cmds, f.err
}

func TestResponderMapsLifecycleCalls(t *testing.T) {
	ctx := context.Background()
	sess := &fakeSession{}
	r := NewResponder(sess, reviewInteraction().Interaction)

	require.NoError(t, r.Reply(ctx, commands.Message{Content: "denied", Ephemeral: true}))
	require.NoError(t, r.Defer(ctx, false))
	require.NoError(t, r.FollowUp(ctx, commands.Message{Content: "chunk"}))

	require.Len(t, sess.responses, 2)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, sess.responses[0].resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, sess.responses[0].resp.Data.Flags)
	assert.Equal(t, "denied", sess.responses[0].resp.Data.Content)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, sess.responses[1].resp.Type)
	assert.Zero(t, sess.responses[1].resp.Data.Flags)
	require.Len(t, sess.followups, 1)
	assert.Equal(t, "chunk", sess.followups[0].Content)
}

func TestResponderSurfacesPlatformErrors(t *testing.T) {
	sess := &fakeSession{err: errors.New("unknown interaction")}
	r := NewResponder(sess, reviewInteraction().Interaction)

	assert.Error(t, r.Reply(context.Background(), commands.Message{Content: "x"}))
	assert.Error(t, r.FollowUp(context.Background(), commands.Message{Content: "x"}))
}

type recordingDispatcher struct {
	mu   sync.Mutex
	invs []commands.Invocation
	ctxs []context.Context
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, inv commands.Invocation, responder commands.Responder) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invs = append(d.invs, inv)
	d.ctxs = append(d.ctxs, ctx)
	return commands.OutcomeOK
}

func TestHandlerDispatchesOutlivingRootCancellation(t *testing.T) {
	root, cancel := context.WithCancel(context.Background())
	d := &recordingDispatcher{}
	h := NewHandler(root, d, logger.Nop())
	cancel()

	h.handle(&fakeSession{}, reviewInteraction())
	h.handle(&fakeSession{}, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	h.Drain()

	require.Len(t, d.invs, 1)
	assert.Equal(t, "review", d.invs[0].Command)
	assert.NoError(t, d.ctxs[0].Err(), "started invocations are not cancelled")
}

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, inv commands.Invocation, responder commands.Responder) string {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	d.started <- struct{}{}
	<-d.release
	return commands.OutcomeOK
}

func TestHandlerDrainWaitsForInFlightAndRefusesNewWork(t *testing.T) {
	d := &blockingDispatcher{started: make(chan struct{}, 1), release: make(chan struct{})}
	h := NewHandler(context.Background(), d, logger.Nop())

	h.handle(&fakeSession{}, reviewInteraction())
	<-d.started

	drained := make(chan struct{})
	go func() {
		h.Drain()
		close(drained)
	}()

	select {
	case <-drained:
		t.Fatal("drain returned while an invocation was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.draining
	}, time.Second, 5*time.Millisecond)

	late := &fakeSession{}
	h.handle(late, reviewInteraction())
	require.Len(t, late.responses, 1)

	close(d.release)
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("drain did not return after the in-flight invocation finished")
	}

	d.mu.Lock()
	assert.Equal(t, 1, d.calls, "interactions after drain must not be dispatched")
	d.mu.Unlock()
	resp := late.responses[0].resp
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, commands.GenericFailureText, resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestHandlerAfterDrainNeverDispatches(t *testing.T) {
	d := &recordingDispatcher{}
	h := NewHandler(context.Background(), d, nil)
	h.Drain()

	sess := &fakeSession{}
	h.handle(sess, reviewInteraction())
	h.Drain()

	assert.Empty(t, d.invs)
	require.Len(t, sess.responses, 1)
	assert.Equal(t, commands.GenericFailureText, sess.responses[0].resp.Data.Content)
}

func TestHandlerEndToEndThroughDispatcher(t *testing.T) {
	catalog, err := entitlements.NewCatalog(entitlements.TierSpec{Tier: "elite", RoleID: "R9", PriceID: "price_elite"})
	require.NoError(t, err)
	reg, err := commands.NewRegistry(commands.Builtins(commands.BuiltinParams{Catalog: catalog, ReviewTier: "elite"})...)
	require.NoError(t, err)
	dispatcher, err := commands.NewDispatcher(commands.DispatcherParams{Registry: reg, Catalog: catalog})
	require.NoError(t, err)

	sess := &fakeSession{}
	ic := reviewInteraction()
	ic.Member.Roles = nil
	h := NewHandler(context.Background(), dispatcher, nil)
	h.handle(sess, ic)
	h.Drain()

	require.Len(t, sess.responses, 1)
	assert.Equal(t, commands.DenialText("review", "elite"), sess.responses[0].resp.Data.Content)
	assert.Empty(t, sess.followups)
}

func TestRegisterCommandsOverwritesFromRegistry(t *testing.T) {
	catalog, err := entitlements.NewCatalog(
		entitlements.TierSpec{Tier: "pro", RoleID: "R1", PriceID: "price_pro"},
		entitlements.TierSpec{Tier: "elite", RoleID: "R9", PriceID: "price_elite"},
	)
	require.NoError(t, err)
	reg, err := commands.NewRegistry(commands.Builtins(commands.BuiltinParams{Catalog: catalog, ReviewTier: "elite"})...)
	require.NoError(t, err)
	sess := &fakeSession{}

	created, err := RegisterCommands(context.Background(), sess, "APP1", "G1", reg)
	require.NoError(t, err)

	assert.Equal(t, "APP1", sess.overwrite.appID)
	assert.Equal(t, "G1", sess.overwrite.guildID)
	var names []string
	for _, cmd := range created {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"daily", "coach", "review", "upgrade_pro", "upgrade_elite"}, names)

	coach := created[1]
	require.Len(t, coach.Options, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionString, coach.Options[0].Type)
	assert.True(t, coach.Options[0].Required)
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, coach.Options[1].Type)
	assert.False(t, coach.Options[1].Required)
}

func TestRegisterCommandsErrors(t *testing.T) {
	reg, err := commands.NewRegistry()
	require.NoError(t, err)

	_, err = RegisterCommands(context.Background(), &fakeSession{}, "", "", reg)
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err))

	_, err = RegisterCommands(context.Background(), &fakeSession{err: errors.New("401")}, "APP1", "", reg)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}
