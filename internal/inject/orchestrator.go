package inject

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
	"github.com/samarquis/ScottWisper-sub011/internal/target"
)

// Notifier surfaces request-level failures to the user. The desktop
// implementation lives in internal/notify.
type Notifier interface {
	Notify(title, message string) error
}

// Options tunes the cascade.
type Options struct {
	// Order overrides strategy selection for every target when set.
	Order []StrategyName
	// Disabled strategies are never attempted.
	Disabled []StrategyName
	// SettleDelay is the pause before each attempt; window focus needs
	// time to stabilize after the hotkey context switch.
	SettleDelay time.Duration
	// AttemptTimeout bounds one strategy attempt.
	AttemptTimeout time.Duration
	// PerRuneTimeout extends the attempt timeout for long texts.
	PerRuneTimeout time.Duration
	// PreserveOnFailure copies the text to the clipboard when the
	// cascade is exhausted so the transcription is not lost.
	PreserveOnFailure bool
}

// DefaultOptions returns the cascade tuning used when config supplies
// nothing.
func DefaultOptions() Options {
	return Options{
		SettleDelay:       150 * time.Millisecond,
		AttemptTimeout:    2 * time.Second,
		PerRuneTimeout:    10 * time.Millisecond,
		PreserveOnFailure: true,
	}
}

// Orchestrator runs one injection request at a time through the
// strategy cascade:
//
//	resolving -> attempting(strategy 0) -> ... -> succeeded | exhausted
//
// Requests are strictly serialized: a hotkey activation while an
// injection is in flight waits its turn. The compatibility validator
// reserves the same gate for whole batch runs so validation and live
// dictation never fight over focus or the clipboard.
type Orchestrator struct {
	resolver   target.Resolver
	profiles   compat.Store
	strategies map[StrategyName]Strategy
	clip       Clipboard
	notifier   Notifier
	logger     *slog.Logger
	opts       Options

	gate chan struct{} // capacity 1; the injection pipeline lock
}

// NewOrchestrator wires the cascade. profiles, clip, and notifier may
// be nil; logger may be nil.
func NewOrchestrator(resolver target.Resolver, profiles compat.Store, strategies []Strategy, clip Clipboard, notifier Notifier, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultOptions().AttemptTimeout
	}
	if opts.PerRuneTimeout <= 0 {
		opts.PerRuneTimeout = DefaultOptions().PerRuneTimeout
	}

	byName := make(map[StrategyName]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}

	return &Orchestrator{
		resolver:   resolver,
		profiles:   profiles,
		strategies: byName,
		clip:       clip,
		notifier:   notifier,
		logger:     logger,
		opts:       opts,
		gate:       make(chan struct{}, 1),
	}
}

// Inject delivers text to the currently focused application. It blocks
// until the request completes or ctx is cancelled while waiting for
// the pipeline; a cancellation observed mid-cascade stops before the
// next attempt, never mid-synthesis.
func (o *Orchestrator) Inject(ctx context.Context, text string) (Result, error) {
	return o.Do(ctx, Request{Text: text})
}

// Do runs an explicit request through the cascade.
func (o *Orchestrator) Do(ctx context.Context, req Request) (Result, error) {
	if err := o.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer o.release()
	return o.run(ctx, req)
}

// Reservation grants its holder exclusive use of the injection
// pipeline until released.
type Reservation struct {
	o        *Orchestrator
	released bool
}

// Reserve locks the pipeline for a batch of injections (a validation
// run). Live Inject calls block until Release.
func (o *Orchestrator) Reserve(ctx context.Context) (*Reservation, error) {
	if err := o.acquire(ctx); err != nil {
		return nil, err
	}
	return &Reservation{o: o}, nil
}

// Inject runs a request inside the reservation.
func (r *Reservation) Inject(ctx context.Context, req Request) (Result, error) {
	return r.o.run(ctx, req)
}

// Release returns the pipeline to live dictation. Safe to call more
// than once.
func (r *Reservation) Release() {
	if r.released {
		return
	}
	r.released = true
	r.o.release()
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	select {
	case o.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) release() {
	<-o.gate
}

// run executes the cascade. Callers hold the gate.
func (o *Orchestrator) run(ctx context.Context, req Request) (Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	res := Result{RequestID: req.ID}

	// Empty text is a documented no-op success: zero characters, no
	// strategy consulted.
	if req.Text == "" {
		res.Succeeded = true
		return res, nil
	}

	tgt := o.resolveTarget(req)
	res.Target = tgt

	order, err := o.orderFor(req, tgt)
	if err != nil {
		return res, err
	}

	log := o.logger.With("request_id", req.ID, "target", tgt.ID(), "runes", utf8.RuneCountInString(req.Text))
	log.Debug("injection starting", "order", order)

	for _, name := range order {
		// Cancellation is only honored between attempts; aborting
		// mid-synthesis would leave partial text in the target.
		if ctx.Err() != nil {
			log.Info("injection cancelled between attempts", "attempts", len(res.Attempts))
			return res, fmt.Errorf("inject: cancelled after %d attempts: %w", len(res.Attempts), ctx.Err())
		}

		if err := o.settle(ctx); err != nil {
			return res, fmt.Errorf("inject: cancelled during settle: %w", err)
		}

		strat := o.strategies[name]
		// The attempt runs under its own timeout, insulated from request
		// cancellation: only the per-attempt bound may interrupt a
		// strategy mid-synthesis.
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.attemptTimeout(req.Text))
		out := strat.Attempt(attemptCtx, req.Text, tgt)
		cancel()

		res.Attempts = append(res.Attempts, Attempt{Strategy: name, Outcome: out})

		if out.Succeeded {
			res.Succeeded = true
			res.Strategy = name
			res.Characters = out.CharactersDelivered
			log.Info("injection succeeded", "strategy", name, "elapsed", out.Elapsed)
			return res, nil
		}

		log.Warn("strategy failed, cascading",
			"strategy", name,
			"reason", string(out.Reason),
			"delivered", out.CharactersDelivered,
			"elapsed", out.Elapsed)
	}

	// Exhausted: preserve the text so the dictation is not lost, then
	// surface the aggregated failure to the caller.
	if o.opts.PreserveOnFailure && o.clip != nil {
		if err := o.clip.WriteAll(req.Text); err != nil {
			log.Error("preserving text to clipboard failed", "error", err)
		} else {
			res.TextPreserved = true
		}
	}

	if o.notifier != nil {
		msg := "Injection failed; text "
		if res.TextPreserved {
			msg += "copied to clipboard."
		} else {
			msg += "could not be preserved."
		}
		if err := o.notifier.Notify("ScottWisper", msg); err != nil {
			log.Debug("notify failed", "error", err)
		}
	}

	log.Error("injection exhausted", "reasons", reasonSummary(res.Attempts), "preserved", res.TextPreserved)
	return res, fmt.Errorf("%w: %s", ErrExhausted, reasonSummary(res.Attempts))
}

// resolveTarget uses the request's pre-resolved target if present,
// otherwise queries current focus, and marks the identity as known
// when a compatibility profile exists.
func (o *Orchestrator) resolveTarget(req Request) target.Application {
	var tgt target.Application
	if req.Target != nil {
		tgt = *req.Target
	} else if o.resolver != nil {
		tgt = o.resolver.Resolve()
	}

	if o.profiles != nil && !tgt.Unresolved() {
		_, tgt.Known = o.profiles.Get(tgt.ID())
	}
	return tgt
}

// orderFor selects the cascade ordering. Precedence: per-request
// override, global config override, the known target's validated
// profile, then the conservative default.
func (o *Orchestrator) orderFor(req Request, tgt target.Application) ([]StrategyName, error) {
	var order []StrategyName
	switch {
	case len(req.PreferredOrder) > 0:
		order = req.PreferredOrder
	case len(o.opts.Order) > 0:
		order = o.opts.Order
	case tgt.Known:
		profile, _ := o.profiles.Get(tgt.ID())
		for _, name := range profile.PreferredOrder {
			order = append(order, StrategyName(name))
		}
	}
	if len(order) == 0 {
		order = DefaultOrder()
	}

	filtered := o.filterOrder(order)
	if len(filtered) == 0 {
		// A profile listing only disabled or unregistered strategies
		// falls back to whatever the default order still allows.
		filtered = o.filterOrder(DefaultOrder())
	}
	if len(filtered) == 0 {
		return nil, ErrNoStrategies
	}
	return filtered, nil
}

// filterOrder drops disabled and unregistered strategies and
// de-duplicates while preserving order.
func (o *Orchestrator) filterOrder(order []StrategyName) []StrategyName {
	seen := make(map[StrategyName]bool, len(order))
	var out []StrategyName
	for _, name := range order {
		if seen[name] || o.disabled(name) {
			continue
		}
		if _, ok := o.strategies[name]; !ok {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (o *Orchestrator) disabled(name StrategyName) bool {
	for _, d := range o.opts.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// settle pauses before an attempt so the focus transition triggered by
// the hotkey can finish.
func (o *Orchestrator) settle(ctx context.Context) error {
	if o.opts.SettleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.opts.SettleDelay):
		return nil
	}
}

// attemptTimeout scales the per-attempt bound with text length so long
// dictations are not cut off mid-keystroke-synthesis.
func (o *Orchestrator) attemptTimeout(text string) time.Duration {
	return o.opts.AttemptTimeout + time.Duration(utf8.RuneCountInString(text))*o.opts.PerRuneTimeout
}

// reasonSummary renders per-strategy failure reasons for the
// exhaustion error.
func reasonSummary(attempts []Attempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Strategy, a.Outcome.Reason))
	}
	return strings.Join(parts, ", ")
}
