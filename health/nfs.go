package health

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/jonwraymond/mailgate/mounts"
	"github.com/jonwraymond/mailgate/resilience"
)

// NFSCheckName is the configuration key of the NFS stale-mount check.
const NFSCheckName = "nfs_mount"

// MountLister lists the live mounts of the tracked filesystem types.
type MountLister interface {
	Enumerate() ([]mounts.Record, error)
}

// DirProber enters a directory under a hard deadline and reports how long
// the attempt took.
type DirProber interface {
	Probe(ctx context.Context, dir string) (time.Duration, error)
}

// IsolatedProber enters directories from a re-executed child process so that
// a hung NFS server cannot block the caller.
type IsolatedProber struct {
	Isolator *resilience.Isolator
}

// Probe implements DirProber.
func (p IsolatedProber) Probe(ctx context.Context, dir string) (time.Duration, error) {
	out, err := p.Isolator.Run(ctx, dir, resilience.EnterDirCommand(dir))
	return out.Elapsed, err
}

// NFSCheckerConfig configures the NFS stale-mount checker.
type NFSCheckerConfig struct {
	// Mounts is the watch list of mount points.
	Mounts []string

	// Timeout is the per-mount probe deadline.
	// Default: 5 seconds
	Timeout time.Duration

	// Shuffle randomises the probe order.
	Shuffle bool

	// Lister reads the live mount table.
	// Default: /proc/mounts filtered to nfs and nfs4
	Lister MountLister

	// Prober enters each mount.
	// Default: IsolatedProber with Timeout
	Prober DirProber
}

// NFSChecker verifies that every watched mount point is a live NFS mount that
// answers a directory entry within its deadline.
type NFSChecker struct {
	config NFSCheckerConfig
}

// NewNFSChecker creates a new NFS stale-mount checker.
func NewNFSChecker(config NFSCheckerConfig) *NFSChecker {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Lister == nil {
		config.Lister = mounts.NewEnumerator("", nil)
	}
	if config.Prober == nil {
		config.Prober = IsolatedProber{
			Isolator: resilience.NewIsolator(resilience.IsolatorConfig{Timeout: config.Timeout}),
		}
	}
	return &NFSChecker{config: config}
}

// Name returns the name of this checker.
func (c *NFSChecker) Name() string {
	return NFSCheckName
}

// Config returns the checker configuration.
func (c *NFSChecker) Config() NFSCheckerConfig {
	return c.config
}

// Check performs the NFS check.
//
// The watch list must name each mount once and match the live mounts exactly.
// Mounts are then probed one at a time and the first stale mount ends the
// check. On success the result carries the average and maximum probe times
// as performance data.
func (c *NFSChecker) Check(ctx context.Context) Result {
	start := time.Now()

	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	configured := c.config.Mounts
	if len(configured) == 0 {
		return Unhealthy("no NFS mounts configured", ErrNoMounts)
	}
	if dups := mounts.Duplicates(configured); len(dups) > 0 {
		return Unhealthy(
			"duplicate NFS mounts configured",
			fmt.Errorf("%w: duplicate mounts %v", ErrInvalidParams, dups),
		).WithDetails(map[string]any{
			"configured": configured,
			"duplicates": dups,
		}).WithDuration(time.Since(start))
	}

	live, err := c.config.Lister.Enumerate()
	if err != nil {
		return Fatal("mount table unavailable", err).
			WithReason("mount table unavailable").
			WithDuration(time.Since(start))
	}

	found := mounts.Intersect(configured, live)
	if len(found) != len(configured) {
		missing := mounts.Missing(configured, live)
		return Unhealthy(
			fmt.Sprintf("%d of %d configured NFS mounts not mounted", len(missing), len(configured)),
			fmt.Errorf("%w: %v", ErrMountMissing, missing),
		).WithDetails(map[string]any{
			"configured": configured,
			"found":      found,
			"missing":    missing,
		}).WithDuration(time.Since(start))
	}

	records := make(map[string]mounts.Record, len(live))
	for _, r := range live {
		records[filepath.Clean(r.MountPoint)] = r
	}

	order := append([]string(nil), found...)
	if c.config.Shuffle {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	samples := make([]time.Duration, 0, len(order))
	perMount := make(map[string]any, len(order))
	for _, dir := range order {
		elapsed, err := c.config.Prober.Probe(ctx, dir)
		if err != nil && interrupted(ctx, err) {
			return Unhealthy("probe interrupted: "+dir, err).
				WithReason(ReasonInterrupted).
				WithDetails(map[string]any{"mount": dir}).
				WithDuration(time.Since(start))
		}
		if err != nil {
			reason := "stale NFS mount: " + dir
			return Unhealthy(reason, err).
				WithReason(reason).
				WithDetails(map[string]any{
					"mount":   dir,
					"elapsed": elapsed.Seconds(),
					"soft":    records[dir].Soft(),
				}).
				WithDuration(time.Since(start))
		}
		samples = append(samples, elapsed)
		perMount[dir] = elapsed.Seconds()
	}

	timing, err := Aggregate(samples)
	if err != nil {
		return Unhealthy("no NFS mounts probed", err).WithDuration(time.Since(start))
	}

	return Healthy(fmt.Sprintf("%d NFS mounts responsive", timing.Count)).
		WithPerfData(timing.PerfData()).
		WithDetails(map[string]any{
			"mounts": perMount,
			"avg":    timing.AvgSeconds(),
			"max":    timing.MaxSeconds(),
		}).
		WithDuration(time.Since(start))
}

// ReasonInterrupted marks a check that stopped because the run was cancelled
// or the isolator was already busy, not because a mount failed.
const ReasonInterrupted = "interrupted"

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, resilience.ErrBusy)
}
