package main

import (
	"fmt"
	"strings"

	"go.xrstf.de/ghmiles/pkg/github"
)

type repositoryList []github.Repository

func (l *repositoryList) String() string {
	return fmt.Sprint(*l)
}

func (l *repositoryList) Set(value string) error {
	repo, err := github.ParseRepository(value)
	if err != nil {
		return err
	}

	*l = append(*l, repo)

	return nil
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}

	return nil
}
