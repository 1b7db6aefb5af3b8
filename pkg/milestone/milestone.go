// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package milestone

import (
	"fmt"
	"sort"

	"go.xrstf.de/ghmiles/pkg/github"
)

// Milestone is a named group of issues with completion statistics. It is
// not modified after Build returns it.
type Milestone struct {
	Title string
	// Issues are sorted by ascending issue number.
	Issues []github.Issue
	Total  int
	Opened int
	Closed int
	// Progress is the percentage of closed issues, 0 for empty milestones.
	Progress float64
	// Empty is set when no issue belongs to the milestone.
	Empty bool
}

// Build copies issues, sorts them by number and computes the statistics.
func Build(title string, issues []github.Issue) Milestone {
	sorted := make([]github.Issue, len(issues))
	copy(sorted, issues)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	m := Milestone{
		Title:  title,
		Issues: sorted,
		Total:  len(sorted),
	}

	for i := range sorted {
		if sorted[i].IsOpen() {
			m.Opened++
		}
	}

	m.Closed = m.Total - m.Opened

	if m.Total == 0 {
		m.Empty = true
	} else {
		m.Progress = 100.0 * float64(m.Closed) / float64(m.Total)
	}

	return m
}

func (m Milestone) String() string {
	return fmt.Sprintf("<Milestone: %s, %d issues, %.2f%% completed>", m.Title, m.Total, m.Progress)
}
