// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package milestone

import "strings"

// DefaultPadding is the width numeric runs are padded to by LabelKey.
const DefaultPadding = 5

// LabelKey returns a key for label whose lexicographic order matches the
// numeric order of the label, e.g. "v0.2" sorts before "v0.10".
func LabelKey(label string) string {
	return LabelKeyPadded(label, DefaultPadding)
}

// LabelKeyPadded left-pads every run of digits in label with zeros to
// padding characters; non-digit text is kept as-is. Runs longer than
// padding are not truncated, so the key order is only numeric as long as
// no run exceeds padding digits.
func LabelKeyPadded(label string, padding int) string {
	var key strings.Builder

	start := 0
	for start < len(label) {
		end := start
		digits := isDigit(label[start])

		for end < len(label) && isDigit(label[end]) == digits {
			end++
		}

		run := label[start:end]
		if digits && len(run) < padding {
			key.WriteString(strings.Repeat("0", padding-len(run)))
		}

		key.WriteString(run)
		start = end
	}

	return key.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
