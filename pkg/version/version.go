// Package version parses and orders platform version strings.
//
// Mobile toolchains report versions either as dotted numerics ("13.0.1")
// or as release codenames ("Tiramisu", "UpsideDownCake") for the channel
// that has no numeric form yet. Codenames always rank newer than any
// numeric version; two distinct codenames have no decidable order.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an immutable parsed numeric version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String renders the canonical dotted form with missing parts zeroed.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// weight conflates minor/patch ranges >= 10; the version space this tool
// deals with (SDK tools, OS releases) stays below that in practice.
func (v Version) weight() int {
	return v.Major*100 + v.Minor*10 + v.Patch
}

// CodenameError reports an attempt to order two distinct codenames.
type CodenameError struct {
	A, B string
}

func (e *CodenameError) Error() string {
	return fmt.Sprintf("cannot order codename versions %q and %q", e.A, e.B)
}

// Parse parses "x", "x.y" or "x.y.z", with "." or "-" as a uniform
// separator. Codenamed or malformed strings return ok=false, never an
// error; callers decide how to treat codenames.
func Parse(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, false
	}

	sep := "."
	if strings.Contains(s, "-") {
		// Separators must not mix.
		if strings.Contains(s, ".") {
			return Version{}, false
		}
		sep = "-"
	}

	parts := strings.Split(s, sep)
	if len(parts) > 3 {
		return Version{}, false
	}

	nums := [3]int{}
	for i, p := range parts {
		n, ok := parseComponent(p)
		if !ok {
			return Version{}, false
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, true
}

// parseComponent accepts a non-empty digit run without leading zeros
// (a bare "0" is fine).
func parseComponent(p string) (int, bool) {
	if p == "" {
		return 0, false
	}
	if len(p) > 1 && p[0] == '0' {
		return 0, false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Compare orders two version strings and returns -1, 0 or 1.
//
// Numeric pairs compare by weighted digits. A codename is strictly newer
// than any numeric version (it represents the bleeding-edge channel).
// Two codenames are equal iff textually equal (case-insensitive);
// otherwise the comparison is refused with a *CodenameError.
func Compare(a, b string) (int, error) {
	va, aOK := Parse(a)
	vb, bOK := Parse(b)

	switch {
	case aOK && bOK:
		switch {
		case va.weight() < vb.weight():
			return -1, nil
		case va.weight() > vb.weight():
			return 1, nil
		default:
			return 0, nil
		}
	case !aOK && !bOK:
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
			return 0, nil
		}
		return 0, &CodenameError{A: a, B: b}
	case aOK:
		// b is a codename: always newer.
		return -1, nil
	default:
		return 1, nil
	}
}

// Same reports whether two version strings compare equal.
func Same(a, b string) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// SameOrNewer reports whether a is at least as new as b.
func SameOrNewer(a, b string) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}
