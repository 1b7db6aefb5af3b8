// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package milestone

import (
	"regexp"
	"sort"
)

// Pattern decides whether a label or tag name denotes a milestone.
type Pattern func(name string) bool

// MatchRegexp returns a Pattern backed by re. Anchor the expression if
// the whole name has to match.
func MatchRegexp(re *regexp.Regexp) Pattern {
	return re.MatchString
}

var (
	versionLabelRegexp = regexp.MustCompile(`^v\d+\.\d+$`)
	numericLabelRegexp = regexp.MustCompile(`^\d+\.\d+$`)

	// VersionPattern matches labels like "v0.1".
	VersionPattern = MatchRegexp(versionLabelRegexp)

	// NumericPattern matches labels like "0.1".
	NumericPattern = MatchRegexp(numericLabelRegexp)
)

// SelectLabels filters labels by pattern and orders the result by
// LabelKey. Duplicates are removed. An empty result is valid.
func SelectLabels(labels []string, pattern Pattern, descending bool) []string {
	seen := map[string]struct{}{}
	selected := []string{}

	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}

		if pattern(label) {
			selected = append(selected, label)
		}
	}

	sortByLabelKey(selected, descending)

	return selected
}

// DetectPattern returns the preset matching the most labels, preferring
// VersionPattern on a tie. It returns nil if no preset matches anything.
func DetectPattern(labels []string) Pattern {
	var (
		best      Pattern
		bestCount int
	)

	for _, pattern := range []Pattern{VersionPattern, NumericPattern} {
		count := 0
		for _, label := range labels {
			if pattern(label) {
				count++
			}
		}

		if count > bestCount {
			best = pattern
			bestCount = count
		}
	}

	return best
}

// SelectAuto is SelectLabels with a pattern picked by DetectPattern.
func SelectAuto(labels []string, descending bool) []string {
	pattern := DetectPattern(labels)
	if pattern == nil {
		return []string{}
	}

	return SelectLabels(labels, pattern, descending)
}

func sortByLabelKey(names []string, descending bool) {
	keys := make(map[string]string, len(names))
	for _, name := range names {
		keys[name] = LabelKey(name)
	}

	sort.SliceStable(names, func(i, j int) bool {
		a, b := keys[names[i]], keys[names[j]]
		if a == b {
			// "v01" and "v1" share a key
			a, b = names[i], names[j]
		}

		if descending {
			return a > b
		}

		return a < b
	})
}
