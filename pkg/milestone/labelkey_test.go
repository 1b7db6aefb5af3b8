package milestone

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelKey(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{label: "1.0", expected: "00001.00000"},
		{label: "12", expected: "00012"},
		{label: "v3.35.67e-234b", expected: "v00003.00035.00067e-00234b"},
		{label: "", expected: ""},
		{label: "bug", expected: "bug"},
		{label: "v0.1", expected: "v00000.00001"},
		{label: "release-", expected: "release-"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, LabelKey(tt.label))
		})
	}
}

func TestLabelKeyPaddedKeepsLongRuns(t *testing.T) {
	assert.Equal(t, "v1234567.001", LabelKeyPadded("v1234567.1", 3))
	assert.Equal(t, "v1.2", LabelKeyPadded("v1.2", 0))
}

func TestLabelKeyIsMonotonic(t *testing.T) {
	for a := 0; a < 120; a++ {
		for _, b := range []int{0, 1, 2, 9, 10, 11, 99, 100, 101} {
			left := LabelKey(fmt.Sprintf("v1.%d-rc", a))
			right := LabelKey(fmt.Sprintf("v1.%d-rc", b))

			assert.Equal(t, a < b, left < right, "v1.%d vs v1.%d", a, b)
		}
	}
}
