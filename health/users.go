package health

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/jonwraymond/mailgate/resilience"
)

// UsersCheckName is the configuration key of the user-existence check.
const UsersCheckName = "user_exists"

// UserCheckerConfig configures the user-existence checker.
type UserCheckerConfig struct {
	// Users lists the account names that must resolve.
	Users []string

	// Timeout bounds each lookup.
	// Default: 10 seconds
	Timeout time.Duration

	// Lookup resolves an account name.
	// Default: user.Lookup
	Lookup func(name string) (*user.User, error)
}

// UserChecker verifies that every configured account resolves through the
// system's account database.
type UserChecker struct {
	config  UserCheckerConfig
	timeout *resilience.Timeout
}

// NewUserChecker creates a new user-existence checker.
func NewUserChecker(config UserCheckerConfig) *UserChecker {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Lookup == nil {
		config.Lookup = user.Lookup
	}
	return &UserChecker{
		config:  config,
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: config.Timeout}),
	}
}

// Name returns the name of this checker.
func (c *UserChecker) Name() string {
	return UsersCheckName
}

// Config returns the checker configuration.
func (c *UserChecker) Config() UserCheckerConfig {
	return c.config
}

// Check performs the user-existence check. An empty user list passes.
func (c *UserChecker) Check(ctx context.Context) Result {
	start := time.Now()

	var missing []string
	for _, name := range c.config.Users {
		err := c.timeout.Execute(ctx, name, func(context.Context) error {
			_, err := c.config.Lookup(name)
			return err
		})
		if err == nil {
			continue
		}

		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			missing = append(missing, name)
			continue
		}
		return Unhealthy(fmt.Sprintf("lookup of user %s failed", name), err).
			WithDetails(map[string]any{"user": name}).
			WithDuration(time.Since(start))
	}

	if len(missing) > 0 {
		return Unhealthy(
			fmt.Sprintf("users not found: %s", strings.Join(missing, ", ")),
			fmt.Errorf("%w: %s", ErrUserMissing, strings.Join(missing, ", ")),
		).WithDetails(map[string]any{"missing": missing}).WithDuration(time.Since(start))
	}

	return Healthy(fmt.Sprintf("%d users present", len(c.config.Users))).
		WithDuration(time.Since(start))
}
