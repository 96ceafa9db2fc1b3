// Package version reports the Go runtime version the application was built
// with and parses image variant tags (e.g. "go1.22") into comparable versions.
package version

import (
	"fmt"
	"runtime"
	"strings"

	mvc "github.com/Masterminds/semver/v3"
)

// Runtime returns the full runtime version string, e.g. "go1.22.4".
func Runtime() string {
	return runtime.Version()
}

// Short returns the major.minor form of the runtime version, e.g. "1.22".
// Development toolchains ("devel ...") are returned unchanged.
func Short() string {
	v := runtime.Version()
	if !strings.HasPrefix(v, "go") {
		return v
	}
	v = strings.TrimPrefix(v, "go")
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

// FromVariant parses an image variant tag such as "go1.22" or "go1.22.4" into
// a semver version. The leading non-numeric prefix is stripped so that
// variants from other toolchains (e.g. "python3.11") parse the same way.
func FromVariant(variant string) (*mvc.Version, error) {
	trimmed := strings.TrimLeftFunc(variant, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if trimmed == "" {
		return nil, fmt.Errorf("variant %q carries no version", variant)
	}
	v, err := mvc.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid variant %q: %w", variant, err)
	}
	return v, nil
}

// AtLeast reports whether the variant tag is at or above the minimum version.
// An empty minimum always passes.
func AtLeast(variant, minimum string) (bool, error) {
	if minimum == "" {
		return true, nil
	}
	v, err := FromVariant(variant)
	if err != nil {
		return false, err
	}
	constraint, err := mvc.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	return constraint.Check(v), nil
}
