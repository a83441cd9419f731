package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict replaces $VAR and ${VAR} in s with values from the process
// environment. Every referenced variable must be set, though it may be empty.
// "$$" yields a literal "$". All missing names are reported at once, sorted,
// in an error wrapping ErrMissingEnv.
func ExpandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	out := os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := os.LookupEnv(name)
		if !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return out, nil
}
