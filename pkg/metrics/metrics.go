package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	milestoneIssues = prometheus.NewDesc(
		"ghmiles_milestone_issues",
		"Number of issues in a milestone by state",
		[]string{"repo", "report", "milestone", "state"},
		nil,
	)

	milestoneProgress = prometheus.NewDesc(
		"ghmiles_milestone_progress",
		"Percentage of closed issues in a milestone",
		[]string{"repo", "report", "milestone"},
		nil,
	)

	milestoneEmpty = prometheus.NewDesc(
		"ghmiles_milestone_empty",
		"1 if no issue belongs to the milestone, 0 otherwise",
		[]string{"repo", "report", "milestone"},
		nil,
	)

	githubPointsRemaining = prometheus.NewDesc(
		"ghmiles_api_points_remaining",
		"Number of currently remaining GitHub API points",
		nil,
		nil,
	)

	githubRequestsTotal = prometheus.NewDesc(
		"ghmiles_api_requests_total",
		"Total number of requests against the GitHub API",
		[]string{"repo"},
		nil,
	)

	githubCostsTotal = prometheus.NewDesc(
		"ghmiles_api_costs_total",
		"Total GraphQL cost of the requests against the GitHub API",
		[]string{"repo"},
		nil,
	)
)
