package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/mailgate/config"
	"github.com/jonwraymond/mailgate/health"
	"github.com/jonwraymond/mailgate/mounts"
	"github.com/jonwraymond/mailgate/observe"
	"github.com/jonwraymond/mailgate/resilience"
)

// Builder constructs the checker for one configured check. Errors mean the
// check's parameter block is unusable; the check then runs and fails.
type Builder func(cfg *config.Config, mw *observe.Middleware) (health.Checker, error)

// Dispatcher runs the configured checks in a fixed order and feeds their
// results to a Reporter.
//
// Only checks present in the configuration run. The first failure ends the
// run; when every present check passes the confirm check runs last and the
// verdict is Proceed.
//
// Contract:
//   - Concurrency: Register and Run are safe for concurrent use; checks run
//     sequentially within one Run.
//   - Context: cancellation between checks defers the run.
type Dispatcher struct {
	mw *observe.Middleware

	mu       sync.RWMutex
	builders map[string]Builder
	order    []string
}

// NewDispatcher creates a dispatcher with the built-in checks registered in
// dispatch order. A nil middleware is replaced by one without telemetry.
func NewDispatcher(mw *observe.Middleware) *Dispatcher {
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}
	d := &Dispatcher{
		mw:       mw,
		builders: make(map[string]Builder, len(config.KnownChecks)),
	}
	d.Register(config.CheckNFSMount, BuildNFSMount)
	d.Register(config.CheckSSSDHealth, BuildSSSDHealth)
	d.Register(config.CheckUserExists, BuildUserExists)
	return d
}

// Register sets the builder for name. A new name is appended to the dispatch
// order; an existing name keeps its position.
func (d *Dispatcher) Register(name string, b Builder) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.builders[name]; !exists {
		d.order = append(d.order, name)
	}
	d.builders[name] = b
}

// CheckerNames returns the registered check names in dispatch order.
func (d *Dispatcher) CheckerNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// Build returns the instrumented checker for name. A block that cannot be
// decoded yields a checker that always fails with health.ErrInvalidParams.
func (d *Dispatcher) Build(cfg *config.Config, name string) (health.Checker, error) {
	d.mu.RLock()
	b, ok := d.builders[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCheck, name)
	}

	checker, err := b(cfg, d.mw)
	if err != nil {
		checker = invalidChecker(name, err)
	}
	return d.mw.Wrap(checker), nil
}

// Run dispatches the checks configured in cfg and returns the verdict
// recorded by reporter. A nil cfg defers with a configuration error.
func (d *Dispatcher) Run(ctx context.Context, cfg *config.Config, reporter *Reporter) Verdict {
	if cfg == nil {
		reporter.Abort(ctx, ReasonConfigError, config.ErrNoChecks)
		return reporter.Finish(ctx)
	}

	logger := d.mw.Logger()
	for _, name := range cfg.Unknown() {
		logger.Warn(ctx, "unknown check ignored", observe.Field{Key: "check", Value: name})
	}

	for _, name := range d.CheckerNames() {
		if !cfg.Has(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			reporter.Abort(ctx, health.ReasonInterrupted, err)
			return reporter.Finish(ctx)
		}

		checker, err := d.Build(cfg, name)
		if err != nil {
			reporter.Abort(ctx, ReasonConfigError, err)
			return reporter.Finish(ctx)
		}
		if !reporter.Undertake(ctx, name, checker.Check(ctx)) {
			return reporter.Finish(ctx)
		}
	}

	confirm := d.mw.Wrap(health.Confirm())
	reporter.Undertake(ctx, health.ConfirmName, confirm.Check(ctx))
	return reporter.Finish(ctx)
}

func invalidChecker(name string, err error) health.Checker {
	return health.NewCheckerFunc(name, func(context.Context) health.Result {
		return health.Unhealthy("invalid parameters", fmt.Errorf("%w: %w", health.ErrInvalidParams, err))
	})
}

// BuildNFSMount builds the stale NFS mount checker from the nfs_mount block.
func BuildNFSMount(cfg *config.Config, mw *observe.Middleware) (health.Checker, error) {
	var p NFSMountParams
	if err := cfg.Decode(config.CheckNFSMount, &p); err != nil {
		return nil, err
	}

	iso := resilience.NewIsolator(resilience.IsolatorConfig{Timeout: p.Timeout})
	return health.NewNFSChecker(health.NFSCheckerConfig{
		Mounts:  p.Mounts,
		Timeout: iso.Config().Timeout,
		Shuffle: p.Shuffle,
		Lister:  mounts.NewEnumerator(p.MountTable, p.FSTypes),
		Prober:  mw.InstrumentProber(health.IsolatedProber{Isolator: iso}),
	}), nil
}

// BuildSSSDHealth builds the directory-service checker from the sssd_health block.
func BuildSSSDHealth(cfg *config.Config, _ *observe.Middleware) (health.Checker, error) {
	var p SSSDHealthParams
	if err := cfg.Decode(config.CheckSSSDHealth, &p); err != nil {
		return nil, err
	}
	return health.NewSSSDChecker(health.SSSDCheckerConfig{
		Domain:  p.Domain,
		Tool:    p.Tool,
		Timeout: p.Timeout,
	}), nil
}

// BuildUserExists builds the user-existence checker from the user_exists block.
func BuildUserExists(cfg *config.Config, _ *observe.Middleware) (health.Checker, error) {
	var p UserExistsParams
	if err := cfg.Decode(config.CheckUserExists, &p); err != nil {
		return nil, err
	}
	return health.NewUserChecker(health.UserCheckerConfig{
		Users:   p.Users,
		Timeout: p.Timeout,
	}), nil
}
