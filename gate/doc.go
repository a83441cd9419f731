// Package gate decides whether the mail system may deliver a message now.
//
// A Dispatcher runs the configured checks in the fixed order nfs_mount,
// sssd_health, user_exists and hands each result to a Reporter. The first
// failure defers delivery; if every configured check passes, the confirm check
// closes the run and delivery proceeds. Exactly one verdict line is written:
//
//	action=DUNNO
//
//	action=432 Service temporarily unavailable - <reason>
//
// # Basic Usage
//
//	reporter := gate.NewReporter(logger, metrics)
//	verdict := gate.NewDispatcher(mw).Run(ctx, cfg, reporter)
//	_ = reporter.Emit(os.Stdout)
//	os.Exit(verdict.ExitCode())
//
// # Policy requests
//
// ReadRequest parses the name=value attributes the mail system sends. The
// attributes are used for log context only; they never change the verdict.
package gate
