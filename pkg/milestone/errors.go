// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package milestone

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is matched by every error a Source returns for a
// failed fetch, as opposed to a fetch that found nothing.
var ErrSourceUnavailable = errors.New("issue source unavailable")

// SourceError describes a failed request against the issue source.
type SourceError struct {
	Op    string
	Repo  string
	Label string
	Err   error
}

func (e *SourceError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s %s (label %q): %v", e.Op, e.Repo, e.Label, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Repo, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// SeriesError is returned by Series.Err when the milestone at Position
// could not be loaded.
type SeriesError struct {
	Position int
	Title    string
	Err      error
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("failed to load milestone %q (position %d): %v", e.Title, e.Position, e.Err)
}

func (e *SeriesError) Unwrap() error {
	return e.Err
}
