package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

var py4j = github.Repository{Owner: "bartdag", Name: "py4j"}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeAPI answers GraphQL requests with canned JSON documents; respond
// returns the "data" object or an HTTP status to fail with.
type fakeAPI struct {
	lock     sync.Mutex
	requests []graphqlRequest
	respond  func(req graphqlRequest, attempt int) (string, int)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var req graphqlRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.lock.Lock()
	f.requests = append(f.requests, req)
	attempt := len(f.requests)
	f.lock.Unlock()

	data, status := f.respond(req, attempt)
	if status != http.StatusOK {
		http.Error(w, "upstream failure", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data": %s}`, data)
}

func newTestClient(t *testing.T, api *fakeAPI, retries int) *Client {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return newClient(githubv4.NewEnterpriseClient(server.URL, server.Client()), log, retries, time.Millisecond)
}

func cursorOf(req graphqlRequest) string {
	cursor, _ := req.Variables["cursor"].(string)
	return cursor
}

func TestListLabelsPaginates(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, _ int) (string, int) {
			if cursorOf(req) == "" {
				return `{"rateLimit": {"cost": 1, "remaining": 4999},
					"repository": {"labels": {
						"nodes": [{"name": "bug"}, {"name": "v0.1"}],
						"pageInfo": {"endCursor": "page2", "hasNextPage": true}}}}`, http.StatusOK
			}

			return `{"rateLimit": {"cost": 1, "remaining": 4998},
				"repository": {"labels": {
					"nodes": [{"name": "v0.2"}],
					"pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 0)

	labels, err := c.ListLabels(t.Context(), py4j)
	require.NoError(t, err)

	assert.Equal(t, []string{"bug", "v0.1", "v0.2"}, labels)
	require.Len(t, api.requests, 2)
	assert.Equal(t, "bartdag", api.requests[0].Variables["owner"])
	assert.Equal(t, "page2", cursorOf(api.requests[1]))

	assert.Equal(t, map[string]int{"bartdag/py4j": 2}, c.GetRequestCounts())
	assert.Equal(t, map[string]int{"bartdag/py4j": 2}, c.GetTotalCosts())
	assert.Equal(t, 4998, c.GetRemainingPoints())
}

func TestListIssuesByLabel(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, _ int) (string, int) {
			return `{"rateLimit": {"cost": 1, "remaining": 4000},
				"repository": {"issues": {
					"nodes": [
						{"number": 3, "title": "Write a getting started tutorial", "state": "CLOSED",
						 "createdAt": "2011-01-05T10:00:00Z", "labels": {"nodes": [{"name": "v0.1"}]}},
						{"number": 7, "title": "Support callbacks", "state": "OPEN",
						 "createdAt": "2011-01-06T10:00:00Z", "labels": {"nodes": [{"name": "v0.1"}, {"name": "enhancement"}]}}
					],
					"pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 0)

	issues, err := c.ListIssuesByLabel(t.Context(), py4j, "v0.1")
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, github.Issue{
		Number:    3,
		Title:     "Write a getting started tutorial",
		State:     githubv4.IssueStateClosed,
		CreatedAt: time.Date(2011, time.January, 5, 10, 0, 0, 0, time.UTC),
		Labels:    []string{"v0.1"},
	}, issues[0])
	assert.True(t, issues[1].IsOpen())
	assert.Equal(t, []string{"v0.1", "enhancement"}, issues[1].Labels)

	require.Len(t, api.requests, 1)
	assert.Equal(t, []interface{}{"v0.1"}, api.requests[0].Variables["labels"])
	assert.Contains(t, api.requests[0].Query, "issues(labels: $labels")
}

func TestListAllIssuesEmpty(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, _ int) (string, int) {
			return `{"rateLimit": {"cost": 1, "remaining": 4000},
				"repository": {"issues": {"nodes": [], "pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 0)

	issues, err := c.ListAllIssues(t.Context(), py4j)
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
	assert.NotContains(t, api.requests[0].Query, "$labels")
}

func TestListTags(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, _ int) (string, int) {
			return `{"rateLimit": {"cost": 1, "remaining": 4000},
				"repository": {"refs": {
					"nodes": [
						{"name": "v0.1", "target": {"committedDate": "2011-02-01T00:00:00Z"}},
						{"name": "v0.2", "target": {"tagger": {"date": "2011-03-01T12:00:00Z"}}}
					],
					"pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 0)

	tags, err := c.ListTags(t.Context(), py4j)
	require.NoError(t, err)

	require.Len(t, tags, 2)
	assert.Equal(t, "v0.1", tags[0].Name)
	assert.True(t, tags[0].CreatedAt.Equal(time.Date(2011, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "v0.2", tags[1].Name)
	assert.True(t, tags[1].CreatedAt.Equal(time.Date(2011, time.March, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, strings.Contains(api.requests[0].Query, `refPrefix: "refs/tags/"`))
}

func TestSourceUnavailable(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, _ int) (string, int) {
			return "", http.StatusBadGateway
		},
	}

	c := newTestClient(t, api, 1)

	_, err := c.ListIssuesByLabel(t.Context(), py4j, "v0.3")
	require.Error(t, err)
	assert.ErrorIs(t, err, milestone.ErrSourceUnavailable)

	var sourceErr *milestone.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, "ListIssuesByLabel", sourceErr.Op)
	assert.Equal(t, "v0.3", sourceErr.Label)

	// one retry
	assert.Len(t, api.requests, 2)
}

func TestRetryRecovers(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, attempt int) (string, int) {
			if attempt == 1 {
				return "", http.StatusServiceUnavailable
			}

			return `{"rateLimit": {"cost": 1, "remaining": 10},
				"repository": {"labels": {"nodes": [{"name": "v0.1"}], "pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 2)

	labels, err := c.ListLabels(t.Context(), py4j)
	require.NoError(t, err)
	assert.Equal(t, []string{"v0.1"}, labels)
	assert.Len(t, api.requests, 2)
}

func TestFailedRequestKeepsRemainingPoints(t *testing.T) {
	api := &fakeAPI{
		respond: func(req graphqlRequest, attempt int) (string, int) {
			if attempt > 1 {
				return "", http.StatusBadGateway
			}

			return `{"rateLimit": {"cost": 1, "remaining": 4998},
				"repository": {"labels": {"nodes": [], "pageInfo": {"endCursor": "", "hasNextPage": false}}}}`, http.StatusOK
		},
	}

	c := newTestClient(t, api, 0)

	_, err := c.ListLabels(t.Context(), py4j)
	require.NoError(t, err)

	_, err = c.ListTags(t.Context(), py4j)
	require.Error(t, err)

	assert.Equal(t, 4998, c.GetRemainingPoints())
	assert.Equal(t, map[string]int{"bartdag/py4j": 2}, c.GetRequestCounts())
}
