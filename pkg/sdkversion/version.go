// Package sdkversion parses and orders .NET SDK version strings such as
// 8.0.100 or 9.0.100-rc.1.24413.1.
package sdkversion

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	prereleaseMarker = "-"
	versionMarker    = "."

	// Unset marks a version component that was not present in the parsed text.
	Unset = -1

	maxComponents = 4
)

// Version is an immutable four-part version with an optional prerelease label.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Build      int
	Prerelease string
}

// Parse parses value into a Version.
func Parse(value string) (*Version, error) {
	if value == "" {
		return nil, fmt.Errorf("version cannot be empty")
	}

	numeric, prerelease, hasPrerelease := strings.Cut(value, prereleaseMarker)
	if hasPrerelease && prerelease == "" {
		return nil, fmt.Errorf("invalid version %q: empty prerelease label", value)
	}

	chunks := strings.Split(numeric, versionMarker)
	if len(chunks) > maxComponents {
		return nil, fmt.Errorf("invalid version %q: too many components", value)
	}

	parts := [maxComponents]int{Unset, Unset, Unset, Unset}
	for i, chunk := range chunks {
		part, err := parseComponent(chunk)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", value, err)
		}
		parts[i] = part
	}

	return &Version{
		Major:      parts[0],
		Minor:      parts[1],
		Patch:      parts[2],
		Build:      parts[3],
		Prerelease: prerelease,
	}, nil
}

// TryParse is like Parse but reports failure with a boolean.
func TryParse(value string) (*Version, bool) {
	v, err := Parse(value)
	if err != nil {
		return nil, false
	}
	return v, true
}

// parseComponent accepts only canonical non-negative integers so that
// String always reproduces the parsed text.
func parseComponent(s string) (int, error) {
	if s == "" {
		return Unset, fmt.Errorf("missing component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Unset, fmt.Errorf("component %q is not a non-negative integer", s)
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return Unset, fmt.Errorf("component %q has a leading zero", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unset, fmt.Errorf("component %q: %w", s, err)
	}
	return n, nil
}

// IsPrerelease reports whether the version carries a prerelease label.
func (v *Version) IsPrerelease() bool {
	return v.Prerelease != ""
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to or after other.
func (v *Version) Compare(other *Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	if c := compareInt(v.Build, other.Build); c != 0 {
		return c
	}

	switch {
	case v.IsPrerelease() && other.IsPrerelease():
		return strings.Compare(v.Prerelease, other.Prerelease)
	case v.IsPrerelease():
		return -1
	case other.IsPrerelease():
		return 1
	default:
		return 0
	}
}

// LessThan reports whether v sorts before other.
func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v sorts after other.
func (v *Version) GreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

// Equal reports whether v and other sort equally.
func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// MajorMinor returns the "major.minor" channel of the version.
func (v *Version) MajorMinor() (string, error) {
	if v.Minor == Unset {
		return "", fmt.Errorf("version %s has no minor component", v)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), nil
}

func (v *Version) String() string {
	parts := make([]string, 0, maxComponents)
	for _, p := range []int{v.Major, v.Minor, v.Patch, v.Build} {
		if p > Unset {
			parts = append(parts, strconv.Itoa(p))
		}
	}
	version := strings.Join(parts, versionMarker)
	if v.IsPrerelease() {
		return version + prereleaseMarker + v.Prerelease
	}
	return version
}

// Compare parses and compares two version strings.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func compareInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
