package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

type fakeUsage struct{}

func (fakeUsage) GetRemainingPoints() int { return 4321 }

func (fakeUsage) GetRequestCounts() map[string]int {
	return map[string]int{"bartdag/py4j": 8}
}

func (fakeUsage) GetTotalCosts() map[string]int {
	return map[string]int{"bartdag/py4j": 9}
}

func TestWriteTextfile(t *testing.T) {
	collector := NewCollector(fakeUsage{})
	collector.Observe("bartdag/py4j", "Py4J", []milestone.Milestone{
		milestone.Build("v0.1", []github.Issue{
			{Number: 1, State: githubv4.IssueStateClosed},
			{Number: 2, State: githubv4.IssueStateOpen},
		}),
		milestone.Build("v0.2", nil),
	})

	filename := filepath.Join(t.TempDir(), "ghmiles.prom")
	require.NoError(t, collector.WriteTextfile(filename))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, `ghmiles_milestone_issues{milestone="v0.1",report="Py4J",repo="bartdag/py4j",state="open"} 1`)
	assert.Contains(t, text, `ghmiles_milestone_issues{milestone="v0.1",report="Py4J",repo="bartdag/py4j",state="closed"} 1`)
	assert.Contains(t, text, `ghmiles_milestone_progress{milestone="v0.1",report="Py4J",repo="bartdag/py4j"} 50`)
	assert.Contains(t, text, `ghmiles_milestone_empty{milestone="v0.2",report="Py4J",repo="bartdag/py4j"} 1`)
	assert.Contains(t, text, `ghmiles_api_requests_total{repo="bartdag/py4j"} 8`)
	assert.Contains(t, text, `ghmiles_api_costs_total{repo="bartdag/py4j"} 9`)
	assert.Contains(t, text, `ghmiles_api_points_remaining 4321`)
}

func TestCollectWithoutUsage(t *testing.T) {
	collector := NewCollector(nil)
	collector.Observe("bartdag/py4j", "Py4J", []milestone.Milestone{milestone.Build("v0.1", nil)})

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(collector))

	families, err := registry.Gather()
	require.NoError(t, err)

	names := []string{}
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.ElementsMatch(t, []string{"ghmiles_milestone_issues", "ghmiles_milestone_progress", "ghmiles_milestone_empty"}, names)
}

func TestReportsOfOneRepository(t *testing.T) {
	collector := NewCollector(nil)
	collector.Observe("bartdag/py4j", "labels", []milestone.Milestone{milestone.Build("v0.1", nil)})
	collector.Observe("bartdag/py4j", "releases", []milestone.Milestone{milestone.Build("v0.1", nil)})

	// repeated titles within one report are exported once
	collector.Observe("bartdag/py4j", "explicit", []milestone.Milestone{
		milestone.Build("v0.1", nil),
		milestone.Build("v0.1", nil),
	})

	filename := filepath.Join(t.TempDir(), "ghmiles.prom")
	require.NoError(t, collector.WriteTextfile(filename))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)

	text := string(content)
	for _, report := range []string{"labels", "releases", "explicit"} {
		assert.Contains(t, text, `ghmiles_milestone_empty{milestone="v0.1",report="`+report+`",repo="bartdag/py4j"} 1`)
	}
}
