// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package milestone

import (
	"context"
	"fmt"
	"sort"

	"go.xrstf.de/ghmiles/pkg/github"
)

// CurrentTitle is the title of the tag-mode window after the newest tag.
const CurrentTitle = "current"

// Source provides the raw data milestones are built from. Implementations
// must return an error matching ErrSourceUnavailable when a fetch fails,
// never a partial or empty result.
type Source interface {
	ListLabels(ctx context.Context, repo github.Repository) ([]string, error)
	ListTags(ctx context.Context, repo github.Repository) ([]github.Tag, error)
	ListIssuesByLabel(ctx context.Context, repo github.Repository, label string) ([]github.Issue, error)
	ListAllIssues(ctx context.Context, repo github.Repository) ([]github.Issue, error)
}

type loadFunc func(ctx context.Context, position int) (Milestone, error)

// Series is a forward-only sequence of milestones. Each milestone is
// loaded when Next reaches it; once Next returned false, Err tells whether
// the series was exhausted or failed.
type Series struct {
	ctx     context.Context
	titles  []string
	load    loadFunc
	pos     int
	current Milestone
	err     error
	done    bool
}

func newSeries(ctx context.Context, titles []string, load loadFunc) *Series {
	return &Series{
		ctx:    ctx,
		titles: titles,
		load:   load,
	}
}

// Titles returns the titles of all milestones in the series, in order.
func (s *Series) Titles() []string {
	return append([]string{}, s.titles...)
}

func (s *Series) Len() int {
	return len(s.titles)
}

// Next loads the next milestone. It returns false when the series is
// exhausted or a milestone failed to load.
func (s *Series) Next() bool {
	if s.done {
		return false
	}

	if s.pos >= len(s.titles) {
		s.done = true
		return false
	}

	m, err := s.load(s.ctx, s.pos)
	if err != nil {
		s.err = &SeriesError{
			Position: s.pos,
			Title:    s.titles[s.pos],
			Err:      err,
		}
		s.done = true

		return false
	}

	s.current = m
	s.pos++

	return true
}

// Milestone returns the milestone loaded by the last successful Next.
func (s *Series) Milestone() Milestone {
	return s.current
}

// Err returns the *SeriesError that stopped the series, if any.
func (s *Series) Err() error {
	return s.err
}

// Collect drains the series. The milestones loaded before a failure are
// returned alongside the error.
func (s *Series) Collect() ([]Milestone, error) {
	milestones := []Milestone{}

	for s.Next() {
		milestones = append(milestones, s.Milestone())
	}

	return milestones, s.Err()
}

// ByLabel builds one milestone per repository label matching pattern,
// ordered by LabelKey. A nil pattern is picked by DetectPattern.
func ByLabel(ctx context.Context, src Source, repo github.Repository, pattern Pattern, descending bool) (*Series, error) {
	labels, err := src.ListLabels(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	var selected []string
	if pattern == nil {
		selected = SelectAuto(labels, descending)
	} else {
		selected = SelectLabels(labels, pattern, descending)
	}

	return ByLabels(ctx, src, repo, selected), nil
}

// ByLabels builds one milestone per given label, in the given order.
// Repeated labels are only used once, at their first position.
func ByLabels(ctx context.Context, src Source, repo github.Repository, labels []string) *Series {
	seen := map[string]struct{}{}
	titles := []string{}

	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}

		titles = append(titles, label)
	}

	return newSeries(ctx, titles, func(ctx context.Context, position int) (Milestone, error) {
		label := titles[position]

		issues, err := src.ListIssuesByLabel(ctx, repo, label)
		if err != nil {
			return Milestone{}, err
		}

		return Build(label, issues), nil
	})
}

// ByTag builds one milestone per time window between two successive tags
// matching pattern. Issues are assigned by creation time: a tag's window
// spans (previous tag, tag], the oldest tag's window is open to the past
// and the "current" window holds everything created after the newest tag.
// All issues are fetched once before ByTag returns. If no tag matches,
// the series is empty. A nil pattern is picked by DetectPattern.
func ByTag(ctx context.Context, src Source, repo github.Repository, pattern Pattern, descending bool) (*Series, error) {
	allTags, err := src.ListTags(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	if pattern == nil {
		names := make([]string, 0, len(allTags))
		for _, tag := range allTags {
			names = append(names, tag.Name)
		}

		if pattern = DetectPattern(names); pattern == nil {
			return newSeries(ctx, []string{}, nil), nil
		}
	}

	tags := selectTags(allTags, pattern)
	if len(tags) == 0 {
		return newSeries(ctx, []string{}, nil), nil
	}

	issues, err := src.ListAllIssues(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	// windows in chronological order, "current" last
	titles := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		titles = append(titles, tag.Name)
	}
	titles = append(titles, CurrentTitle)

	buckets := partitionByTag(issues, tags)

	if descending {
		reverse(titles)
		reverse(buckets)
	}

	return newSeries(ctx, titles, func(_ context.Context, position int) (Milestone, error) {
		return Build(titles[position], buckets[position]), nil
	}), nil
}

// selectTags filters tags by name and sorts them chronologically; tags
// created at the same time are ordered by LabelKey. A tag named like the
// "current" window is skipped, the window title stays unique.
func selectTags(tags []github.Tag, pattern Pattern) []github.Tag {
	seen := map[string]struct{}{CurrentTitle: {}}
	selected := []github.Tag{}

	for _, tag := range tags {
		if _, ok := seen[tag.Name]; ok {
			continue
		}
		seen[tag.Name] = struct{}{}

		if pattern(tag.Name) {
			selected = append(selected, tag)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return LabelKey(a.Name) < LabelKey(b.Name)
	})

	return selected
}

// partitionByTag returns len(tags)+1 buckets, one per window, using a
// binary search over the chronologically sorted tags.
func partitionByTag(issues []github.Issue, tags []github.Tag) [][]github.Issue {
	buckets := make([][]github.Issue, len(tags)+1)
	for i := range buckets {
		buckets[i] = []github.Issue{}
	}

	for _, issue := range issues {
		idx := sort.Search(len(tags), func(i int) bool {
			return !tags[i].CreatedAt.Before(issue.CreatedAt)
		})

		buckets[idx] = append(buckets[idx], issue)
	}

	return buckets
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
