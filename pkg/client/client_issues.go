// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"go.xrstf.de/ghmiles/pkg/github"
)

type graphqlIssue struct {
	Number    int
	Title     string
	State     githubv4.IssueState
	CreatedAt time.Time

	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 50)"`
}

func convertIssue(api graphqlIssue) github.Issue {
	issue := github.Issue{
		Number:    api.Number,
		Title:     api.Title,
		State:     api.State,
		CreatedAt: api.CreatedAt,
		Labels:    []string{},
	}

	for _, label := range api.Labels.Nodes {
		issue.Labels = append(issue.Labels, label.Name)
	}

	return issue
}

type issueConnection struct {
	Nodes    []graphqlIssue
	PageInfo pageInfo
}

type listIssuesQuery struct {
	RateLimit  rateLimit
	Repository struct {
		Issues issueConnection `graphql:"issues(first: 100, orderBy: {field: CREATED_AT, direction: ASC}, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type listLabelIssuesQuery struct {
	RateLimit  rateLimit
	Repository struct {
		Issues issueConnection `graphql:"issues(labels: $labels, first: 100, orderBy: {field: CREATED_AT, direction: ASC}, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// ListAllIssues returns every open and closed issue of repo.
func (c *Client) ListAllIssues(ctx context.Context, repo github.Repository) ([]github.Issue, error) {
	return c.listIssues("ListAllIssues", repo, "", func(variables map[string]interface{}) (issueConnection, rateLimit, error) {
		var q listIssuesQuery
		err := c.query(ctx, &q, variables)

		return q.Repository.Issues, q.RateLimit, err
	})
}

// ListIssuesByLabel returns every open and closed issue carrying label.
func (c *Client) ListIssuesByLabel(ctx context.Context, repo github.Repository, label string) ([]github.Issue, error) {
	return c.listIssues("ListIssuesByLabel", repo, label, func(variables map[string]interface{}) (issueConnection, rateLimit, error) {
		variables["labels"] = []githubv4.String{githubv4.String(label)}

		var q listLabelIssuesQuery
		err := c.query(ctx, &q, variables)

		return q.Repository.Issues, q.RateLimit, err
	})
}

type issuePageFunc func(variables map[string]interface{}) (issueConnection, rateLimit, error)

func (c *Client) listIssues(op string, repo github.Repository, label string, fetchPage issuePageFunc) ([]github.Issue, error) {
	variables := repositoryVariables(repo)
	issues := []github.Issue{}

	for {
		conn, rateLimit, err := fetchPage(variables)
		c.countRequest(repo, rateLimit)

		c.log.WithFields(logrus.Fields{
			"owner":  repo.Owner,
			"name":   repo.Name,
			"label":  label,
			"cursor": variables["cursor"],
			"cost":   rateLimit.Cost,
		}).Debugf("%s()", op)

		if err != nil {
			return nil, unavailable(op, repo, label, err)
		}

		for _, node := range conn.Nodes {
			issues = append(issues, convertIssue(node))
		}

		if !conn.PageInfo.HasNextPage {
			break
		}

		variables["cursor"] = githubv4.NewString(conn.PageInfo.EndCursor)
	}

	return issues, nil
}
