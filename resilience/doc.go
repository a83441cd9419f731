// Package resilience bounds how long mailgate waits on the system it checks.
//
// # Isolation
//
// A goroutine cannot interrupt a system call blocked in the kernel. Entering a
// directory on an NFS mount whose server is gone can block forever, so the
// Isolator runs such work in a child process:
//
//	iso := resilience.NewIsolator(resilience.IsolatorConfig{Timeout: 5 * time.Second})
//	out, err := iso.Run(ctx, "/srv/mail", resilience.EnterDirCommand("/srv/mail"))
//
// The child gets its own process group. When the deadline fires the whole
// group is killed with SIGKILL and Run returns a *TimeoutError naming the
// target. A child stuck in uninterruptible I/O is abandoned after KillGrace
// rather than awaited. Only one isolated run may be in flight per process;
// an overlapping call fails with ErrBusy.
//
// EnterDirCommand re-executes the current binary, so every program using it
// must call reexec.Init at the top of main (and of TestMain in tests).
//
// # Cooperative timeouts
//
// Timeout bounds calls that can be abandoned in-process, such as account
// lookups. The call keeps running after the deadline; only the caller moves on.
//
// # Errors
//
//   - ErrTimeout: matched by *TimeoutError.
//   - ErrChildFailed: the child exited nonzero (*ChildError).
//   - ErrChildFaulted: the child died from a signal (*ChildError).
//   - ErrBusy: a deadline is already armed.
package resilience
