// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package github

import "time"

// Tag is a named point in time, usually a release. For annotated tags
// CreatedAt is the tagger date, for lightweight tags the commit date.
type Tag struct {
	Name      string
	CreatedAt time.Time
}
