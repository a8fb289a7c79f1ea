package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
)

type OptionKind int

const (
	OptionString OptionKind = iota
	OptionAttachment
)

// Option declares a slash command argument.
type Option struct {
	Name        string `validate:"required,lowercase,max=32"`
	Description string `validate:"required,max=100"`
	Kind        OptionKind
	Required    bool
}

// HandlerFunc runs a command after the dispatcher has applied gating,
// attachment checks, throttling and deferral.
type HandlerFunc func(ctx context.Context, inv Invocation, reply *Lifecycle) error

// Command is the typed record the dispatcher routes on.
type Command struct {
	Name        string `validate:"required,lowercase,max=32"`
	Description string `validate:"required,max=100"`
	// Gate is the tier whose role the caller must hold. TierNone means free.
	Gate entitlements.Tier
	// RequiredAttachment names an attachment option that must be present.
	RequiredAttachment string
	Defer              bool
	Ephemeral          bool
	RateLimited        bool
	Options            []Option `validate:"dive"`
	Handle             HandlerFunc
}

// Registry maps command names to their records. Built once at startup.
type Registry struct {
	byName map[string]Command
	order  []string
}

var commandValidator = validator.New()

func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{byName: make(map[string]Command, len(cmds))}

	var errs error
	for _, cmd := range cmds {
		cmd.Name = strings.TrimSpace(cmd.Name)
		if err := commandValidator.Struct(cmd); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("command %q: %w", cmd.Name, err))
			continue
		}
		if cmd.Handle == nil {
			errs = multierr.Append(errs, fmt.Errorf("command %q: handler required", cmd.Name))
			continue
		}
		if _, dup := r.byName[cmd.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("command %q registered twice", cmd.Name))
			continue
		}
		if cmd.RequiredAttachment != "" && !hasOption(cmd.Options, cmd.RequiredAttachment, OptionAttachment) {
			errs = multierr.Append(errs, fmt.Errorf("command %q: required attachment %q is not declared", cmd.Name, cmd.RequiredAttachment))
			continue
		}
		r.byName[cmd.Name] = cmd
		r.order = append(r.order, cmd.Name)
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Command, bool) {
	if r == nil {
		return Command{}, false
	}
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Commands returns the records in registration order.
func (r *Registry) Commands() []Command {
	if r == nil {
		return nil
	}
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

func hasOption(opts []Option, name string, kind OptionKind) bool {
	for _, opt := range opts {
		if opt.Name == name && opt.Kind == kind {
			return true
		}
	}
	return false
}
