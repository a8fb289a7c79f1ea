package commands

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
)

type sent struct {
	kind      string
	content   string
	ephemeral bool
}

type fakeResponder struct {
	mu        sync.Mutex
	sent      []sent
	deferErr  error
	followErr error
}

func (f *fakeResponder) Reply(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{kind: "reply", content: msg.Content, ephemeral: msg.Ephemeral})
	return nil
}

func (f *fakeResponder) Defer(ctx context.Context, ephemeral bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deferErr != nil {
		return f.deferErr
	}
	f.sent = append(f.sent, sent{kind: "defer", ephemeral: ephemeral})
	return nil
}

func (f *fakeResponder) FollowUp(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.followErr != nil {
		return f.followErr
	}
	f.sent = append(f.sent, sent{kind: "followup", content: msg.Content, ephemeral: msg.Ephemeral})
	return nil
}

func (f *fakeResponder) kinds() []string {
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.kind)
	}
	return out
}

type completion struct {
	system string
	user   string
}

type fakeCompleter struct {
	answer string
	err    error
	calls  []completion
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls = append(f.calls, completion{system: system, user: user})
	return f.answer, f.err
}

type checkoutCall struct {
	userID string
	tier   entitlements.Tier
}

type fakeCheckout struct {
	url   string
	err   error
	calls []checkoutCall
}

func (f *fakeCheckout) CreateCheckoutSession(ctx context.Context, userID string, tier entitlements.Tier) (string, error) {
	f.calls = append(f.calls, checkoutCall{userID: userID, tier: tier})
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeLimiter struct {
	allow bool
	calls int
}

func (f *fakeLimiter) Allow(ctx context.Context, command, userID string) bool {
	f.calls++
	return f.allow
}

var errBoom = errors.New("boom")
