// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package github

import (
	"errors"
	"fmt"
	"strings"
)

type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses "owner/name".
func ParseRepository(value string) (Repository, error) {
	parts := strings.Split(value, "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, errors.New(`not a valid repository name, must be "owner/name"`)
	}

	return Repository{
		Owner: parts[0],
		Name:  parts[1],
	}, nil
}

func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

func (r Repository) String() string {
	return r.FullName()
}
