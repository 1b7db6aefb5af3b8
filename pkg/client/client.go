// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

type rateLimit struct {
	Cost      int
	Remaining int
}

type pageInfo struct {
	EndCursor   githubv4.String
	HasNextPage bool
}

// Client implements milestone.Source on top of the GitHub GraphQL API.
// It is safe for concurrent use.
type Client struct {
	client          *githubv4.Client
	log             logrus.FieldLogger
	retryConfig     retry.Config
	lock            sync.Mutex
	requests        map[string]int
	remainingPoints int
	totalCosts      map[string]int
}

var _ milestone.Source = &Client{}

// NewClient creates a client authenticating with token. Every query is
// attempted up to retries+1 times.
func NewClient(ctx context.Context, log logrus.FieldLogger, token string, retries int) (*Client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	src := oauth2.StaticTokenSource(
		&oauth2.Token{
			AccessToken: token,
		},
	)
	httpClient := oauth2.NewClient(ctx, src)

	return newClient(githubv4.NewClient(httpClient), log, retries, time.Second), nil
}

func newClient(client *githubv4.Client, log logrus.FieldLogger, retries int, delay time.Duration) *Client {
	if retries < 0 {
		retries = 0
	}

	return &Client{
		client: client,
		log:    log,
		retryConfig: retry.Config{
			MaxAttempts:   retries + 1,
			InitialDelay:  delay,
			BackoffPolicy: retry.BackoffExponential,
		},
		requests:        map[string]int{},
		remainingPoints: 0,
		totalCosts:      map[string]int{},
	}
}

func (c *Client) GetRemainingPoints() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.remainingPoints
}

func (c *Client) GetRequestCounts() map[string]int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return copyCounts(c.requests)
}

func (c *Client) GetTotalCosts() map[string]int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return copyCounts(c.totalCosts)
}

func copyCounts(counts map[string]int) map[string]int {
	result := make(map[string]int, len(counts))
	for key, val := range counts {
		result[key] = val
	}

	return result
}

func (c *Client) countRequest(repo github.Repository, rateLimit rateLimit) {
	c.lock.Lock()
	defer c.lock.Unlock()

	key := repo.FullName()

	c.requests[key]++
	c.totalCosts[key] += rateLimit.Cost

	// failed queries carry no rate limit information
	if rateLimit.Remaining > 0 {
		c.remainingPoints = rateLimit.Remaining
	}
}

// query runs a single GraphQL query, retrying failed attempts with
// exponential backoff.
func (c *Client) query(ctx context.Context, q interface{}, variables map[string]interface{}) error {
	r := retry.New[struct{}](c.retryConfig)

	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.client.Query(ctx, q, variables)
	})

	return err
}

func repositoryVariables(repo github.Repository) map[string]interface{} {
	return map[string]interface{}{
		"owner":  githubv4.String(repo.Owner),
		"name":   githubv4.String(repo.Name),
		"cursor": (*githubv4.String)(nil),
	}
}

func unavailable(op string, repo github.Repository, label string, err error) error {
	return &milestone.SourceError{
		Op:    op,
		Repo:  repo.FullName(),
		Label: label,
		Err:   err,
	}
}
