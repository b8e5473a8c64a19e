package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dicklesworthstone/kcwrap/internal/classify"
	"github.com/Dicklesworthstone/kcwrap/internal/dispatch"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/charmbracelet/log"
)

// Resolver supplies the context the wrapped command would target.
type Resolver interface {
	CurrentContext(ctx context.Context) (string, error)
}

// Prompter asks the operator whether to run tool with args.
type Prompter interface {
	Confirm(tool string, args []string) (bool, error)
}

// Dispatcher runs the wrapped tool and returns its exit code.
type Dispatcher interface {
	Forward(ctx context.Context, tool string, args []string) (int, error)
}

// Presenter shows the context banner and the abort notice.
type Presenter interface {
	ShowContext(context string, cat classify.Category) error
	ShowAborted() error
}

// GuardOptions wires a Guard. All collaborators except Logger and Now are required.
type GuardOptions struct {
	Resolver   Resolver
	Identity   session.Identity
	Store      session.Store
	Prompter   Prompter
	Dispatcher Dispatcher
	Presenter  Presenter
	Names      classify.Names

	// BypassToken, when first among the forwarded args, skips confirmation.
	BypassToken string
	// CompletionMarkers identify shell-completion queries that pass through.
	CompletionMarkers []string

	Logger *log.Logger
	Now    func() time.Time
}

// Result describes what Run did.
type Result struct {
	Tool      string            `json:"tool"`
	ExitCode  int               `json:"exit_code"`
	Context   string            `json:"context,omitempty"`
	Category  classify.Category `json:"category,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Decision  *Decision         `json:"decision,omitempty"`

	Completion bool `json:"completion,omitempty"`
	Bypassed   bool `json:"bypassed,omitempty"`
	Prompted   bool `json:"prompted,omitempty"`
	Confirmed  bool `json:"confirmed,omitempty"`
	Aborted    bool `json:"aborted,omitempty"`
	Forwarded  bool `json:"forwarded,omitempty"`
}

// Guard runs one wrapped invocation end to end.
type Guard struct {
	resolver   Resolver
	identity   session.Identity
	store      session.Store
	prompter   Prompter
	dispatcher Dispatcher
	presenter  Presenter
	names      classify.Names

	bypassToken string
	markers     []string

	logger *log.Logger
	now    func() time.Time
}

// NewGuard validates opts and builds a Guard.
func NewGuard(opts GuardOptions) (*Guard, error) {
	var missing []error
	if opts.Resolver == nil {
		missing = append(missing, errors.New("resolver is required"))
	}
	if opts.Identity == nil {
		missing = append(missing, errors.New("identity is required"))
	}
	if opts.Store == nil {
		missing = append(missing, errors.New("store is required"))
	}
	if opts.Prompter == nil {
		missing = append(missing, errors.New("prompter is required"))
	}
	if opts.Dispatcher == nil {
		missing = append(missing, errors.New("dispatcher is required"))
	}
	if opts.Presenter == nil {
		missing = append(missing, errors.New("presenter is required"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	g := &Guard{
		resolver:    opts.Resolver,
		identity:    opts.Identity,
		store:       opts.Store,
		prompter:    opts.Prompter,
		dispatcher:  opts.Dispatcher,
		presenter:   opts.Presenter,
		names:       opts.Names,
		bypassToken: opts.BypassToken,
		markers:     opts.CompletionMarkers,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}
	return g, nil
}

// Run guards one invocation of tool with args.
//
// Bypassed calls (token stripped) and completion queries are forwarded
// before any context or session work. Every error return happens before
// the tool runs, and state is only written after a yes answer.
func (g *Guard) Run(ctx context.Context, tool string, args []string) (*Result, error) {
	res := &Result{Tool: tool}

	if rest, ok := dispatch.SplitBypass(args, g.bypassToken); ok {
		g.logger.Debug("bypass token present, skipping confirmation", "tool", tool)
		res.Bypassed = true
		return g.forward(ctx, res, tool, rest)
	}

	if dispatch.IsCompletionCall(args, g.markers) {
		g.logger.Debug("completion query, passing through", "tool", tool)
		res.Completion = true
		return g.forward(ctx, res, tool, args)
	}

	current, err := g.resolver.CurrentContext(ctx)
	if err != nil {
		return res, fmt.Errorf("resolving current context: %w", err)
	}
	res.Context = current

	id, err := g.identity.SessionID()
	if err != nil {
		return res, fmt.Errorf("resolving session id: %w", err)
	}
	res.SessionID = id

	st, err := g.store.Load(id)
	if err != nil {
		return res, fmt.Errorf("loading session state: %w", err)
	}

	res.Category = classify.Classify(current, g.names)
	if err := g.presenter.ShowContext(current, res.Category); err != nil {
		return res, fmt.Errorf("showing context: %w", err)
	}

	decision := Decide(st, current, g.now())
	res.Decision = &decision
	g.logger.Debug("confirmation decision",
		"context", current,
		"category", res.Category,
		"session", id,
		"prompt", decision.Prompt,
		"reason", decision.Reason,
	)
	if !decision.Prompt {
		return g.forward(ctx, res, tool, args)
	}

	res.Prompted = true
	ok, err := g.prompter.Confirm(tool, args)
	if err != nil {
		return res, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		res.Aborted = true
		if err := g.presenter.ShowAborted(); err != nil {
			g.logger.Warn("failed to print abort notice", "err", err)
		}
		return res, nil
	}

	next := Confirm(st, current, g.now())
	if err := g.store.Save(id, next); err != nil {
		return res, fmt.Errorf("saving session state: %w", err)
	}
	res.Confirmed = true

	return g.forward(ctx, res, tool, args)
}

func (g *Guard) forward(ctx context.Context, res *Result, tool string, args []string) (*Result, error) {
	code, err := g.dispatcher.Forward(ctx, tool, args)
	res.ExitCode = code
	if err != nil {
		return res, fmt.Errorf("running %s: %w", tool, err)
	}
	res.Forwarded = true
	return res, nil
}
