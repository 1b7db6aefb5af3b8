package client

import (
	"context"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"go.xrstf.de/ghmiles/pkg/github"
)

type graphqlTagRef struct {
	Name   string
	Target struct {
		Commit struct {
			CommittedDate time.Time
		} `graphql:"... on Commit"`
		Tag struct {
			Tagger struct {
				Date githubv4.GitTimestamp
			}
		} `graphql:"... on Tag"`
	}
}

// convertTag uses the tagger date of annotated tags and the commit date
// of lightweight tags.
func convertTag(api graphqlTagRef) github.Tag {
	createdAt := api.Target.Tag.Tagger.Date.Time
	if createdAt.IsZero() {
		createdAt = api.Target.Commit.CommittedDate
	}

	return github.Tag{
		Name:      api.Name,
		CreatedAt: createdAt,
	}
}

type listTagsQuery struct {
	RateLimit  rateLimit
	Repository struct {
		Refs struct {
			Nodes    []graphqlTagRef
			PageInfo pageInfo
		} `graphql:"refs(refPrefix: \"refs/tags/\", first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (c *Client) ListTags(ctx context.Context, repo github.Repository) ([]github.Tag, error) {
	variables := repositoryVariables(repo)
	tags := []github.Tag{}

	for {
		var q listTagsQuery

		err := c.query(ctx, &q, variables)
		c.countRequest(repo, q.RateLimit)

		c.log.WithFields(logrus.Fields{
			"owner":  repo.Owner,
			"name":   repo.Name,
			"cursor": variables["cursor"],
			"cost":   q.RateLimit.Cost,
		}).Debugf("ListTags()")

		if err != nil {
			return nil, unavailable("ListTags", repo, "", err)
		}

		for _, node := range q.Repository.Refs.Nodes {
			tags = append(tags, convertTag(node))
		}

		if !q.Repository.Refs.PageInfo.HasNextPage {
			break
		}

		variables["cursor"] = githubv4.NewString(q.Repository.Refs.PageInfo.EndCursor)
	}

	return tags, nil
}
