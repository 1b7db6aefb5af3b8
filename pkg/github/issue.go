// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package github

import (
	"time"

	"github.com/shurcooL/githubv4"
)

type Issue struct {
	Number    int
	Title     string
	State     githubv4.IssueState
	CreatedAt time.Time
	Labels    []string
}

func (i *Issue) IsOpen() bool {
	return i.State == githubv4.IssueStateOpen
}
