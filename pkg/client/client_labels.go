package client

import (
	"context"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"go.xrstf.de/ghmiles/pkg/github"
)

type repositoryLabelsQuery struct {
	RateLimit  rateLimit
	Repository struct {
		Labels struct {
			Nodes []struct {
				Name string
			}
			PageInfo pageInfo
		} `graphql:"labels(first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (c *Client) ListLabels(ctx context.Context, repo github.Repository) ([]string, error) {
	variables := repositoryVariables(repo)
	labels := []string{}

	for {
		var q repositoryLabelsQuery

		err := c.query(ctx, &q, variables)
		c.countRequest(repo, q.RateLimit)

		c.log.WithFields(logrus.Fields{
			"owner":  repo.Owner,
			"name":   repo.Name,
			"cursor": variables["cursor"],
			"cost":   q.RateLimit.Cost,
		}).Debugf("ListLabels()")

		if err != nil {
			return nil, unavailable("ListLabels", repo, "", err)
		}

		for _, label := range q.Repository.Labels.Nodes {
			labels = append(labels, label.Name)
		}

		if !q.Repository.Labels.PageInfo.HasNextPage {
			break
		}

		variables["cursor"] = githubv4.NewString(q.Repository.Labels.PageInfo.EndCursor)
	}

	return labels, nil
}
