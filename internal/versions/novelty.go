// Package versions decides whether a remotely reported version supersedes an
// installed one, and carries the build information of this binary.
package versions

import (
	"strconv"
	"strings"
)

// Sanitize keeps the leading token of a version string, cutting at the first
// whitespace, '(', '-', '#', '[' or '{'. "1.4.2-SNAPSHOT (build 5)" becomes "1.4.2".
func Sanitize(version string) string {
	if i := strings.IndexAny(version, " \t\n\v\f\r(-#[{"); i >= 0 {
		return version[:i]
	}
	return version
}

// IsNewer reports whether latest should replace installed. An empty installed
// version means nothing is installed yet. Whenever the two versions cannot be
// compared the answer is true, so an update is never skipped silently.
func IsNewer(installed, latest string) bool {
	if installed == "" {
		return true
	}

	installed = Sanitize(installed)
	latest = Sanitize(latest)

	// Build numbers
	if installedBuild, err := strconv.ParseInt(installed, 10, 64); err == nil {
		latestBuild, err := strconv.ParseInt(latest, 10, 64)
		if err != nil {
			return true
		}
		return latestBuild > installedBuild
	}

	if strings.IndexByte(installed, '.') > 0 && strings.IndexByte(latest, '.') > 0 {
		installedParts, err := parseDotted(installed)
		if err != nil {
			return true
		}
		latestParts, err := parseDotted(latest)
		if err != nil {
			return true
		}
		return compareDotted(latestParts, installedParts) > 0
	}

	return true
}

// parseDotted splits on '.' dropping trailing empty segments, so "1.2." reads as 1.2.
func parseDotted(version string) ([]int64, error) {
	segments := strings.Split(version, ".")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	parts := make([]int64, len(segments))
	for i, segment := range segments {
		n, err := strconv.ParseInt(segment, 10, 64)
		if err != nil {
			return nil, err
		}
		parts[i] = n
	}
	return parts, nil
}

func compareDotted(a, b []int64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}

	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	}
	return 0
}
