// Package health provides the probes that decide whether mail may be delivered.
//
// A Checker reports a Result that either passes or fails. Failing results
// carry a short Reason for the mail system and Details for the log. The
// package's checkers are pure: they neither log nor exit, leaving both to
// their caller.
//
// # Checkers
//
//   - NFSChecker verifies that each watched mount point is a live NFS mount
//     and enters it from a child process under a hard deadline, so a hung
//     server cannot block the caller.
//   - SSSDChecker runs "sssctl domain-status -o <domain>" and matches the
//     online marker in its output.
//   - UserChecker resolves each configured account name.
//   - Confirm always passes and closes a run.
//
// # Basic Usage
//
//	nfs := health.NewNFSChecker(health.NFSCheckerConfig{
//	    Mounts:  []string{"/srv/mail"},
//	    Timeout: 5 * time.Second,
//	})
//
//	result := nfs.Check(ctx)
//	if !result.Passed() {
//	    log.Printf("defer: %s", result.Reason)
//	}
//
// # Timing
//
// Aggregate summarises probe durations. Its PerfData form is attached to
// passing NFS results:
//
//	avg=0.012000s max=0.020000s
package health
