package health_test

import (
	"context"
	"fmt"
	"os/user"
	"time"

	"github.com/jonwraymond/mailgate/health"
)

func ExampleNewCheckerFunc() {
	spool := health.NewCheckerFunc("spool", func(ctx context.Context) health.Result {
		return health.Healthy("spool writable")
	})

	result := spool.Check(context.Background())

	fmt.Println("Checker name:", spool.Name())
	fmt.Println("Status:", result.Status.String())
	fmt.Println("Message:", result.Message)
	// Output:
	// Checker name: spool
	// Status: healthy
	// Message: spool writable
}

func ExampleUnhealthy() {
	result := health.Unhealthy("stale NFS mount: /srv/mail", health.ErrCheckFailed).
		WithReason("stale NFS mount: /srv/mail")

	fmt.Println("Status:", result.Status.String())
	fmt.Println("Reason:", result.Reason)
	// Output:
	// Status: unhealthy
	// Reason: stale NFS mount: /srv/mail
}

func ExampleAggregate() {
	timing, err := health.Aggregate([]time.Duration{
		12 * time.Millisecond,
		20 * time.Millisecond,
		4 * time.Millisecond,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(timing.PerfData())
	// Output:
	// avg=0.012000s max=0.020000s
}

func ExampleParseOnline() {
	fmt.Println(health.ParseOnline("Online status: Online\n"))
	fmt.Println(health.ParseOnline("Online status: Offline\n"))
	// Output:
	// true
	// false
}

func ExampleNewUserChecker() {
	checker := health.NewUserChecker(health.UserCheckerConfig{
		Users: []string{"postfix", "vmail"},
		Lookup: func(name string) (*user.User, error) {
			if name == "vmail" {
				return nil, user.UnknownUserError(name)
			}
			return &user.User{Username: name}, nil
		},
	})

	result := checker.Check(context.Background())

	fmt.Println("Checker name:", checker.Name())
	fmt.Println("Message:", result.Message)
	// Output:
	// Checker name: user_exists
	// Message: users not found: vmail
}

func ExampleConfirm() {
	result := health.Confirm().Check(context.Background())

	fmt.Println("Passed:", result.Passed())
	// Output:
	// Passed: true
}
