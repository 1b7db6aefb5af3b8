package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"go.xrstf.de/ghmiles/pkg/milestone"
)

// APIUsage is implemented by clients that keep track of their requests.
type APIUsage interface {
	GetRemainingPoints() int
	GetRequestCounts() map[string]int
	GetTotalCosts() map[string]int
}

type Collector struct {
	usage      APIUsage
	lock       sync.RWMutex
	milestones map[reportKey][]milestone.Milestone
}

type reportKey struct {
	repo   string
	report string
}

func NewCollector(usage APIUsage) *Collector {
	return &Collector{
		usage:      usage,
		milestones: map[reportKey][]milestone.Milestone{},
	}
}

// Observe records the milestones of one report of a repository, replacing
// earlier ones of the same report.
func (mc *Collector) Observe(repo string, report string, milestones []milestone.Milestone) {
	mc.lock.Lock()
	defer mc.lock.Unlock()

	mc.milestones[reportKey{repo: repo, report: report}] = append([]milestone.Milestone{}, milestones...)
}

func (mc *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- milestoneIssues
	ch <- milestoneProgress
	ch <- milestoneEmpty
	ch <- githubPointsRemaining
	ch <- githubRequestsTotal
	ch <- githubCostsTotal
}

func (mc *Collector) Collect(ch chan<- prometheus.Metric) {
	mc.lock.RLock()
	defer mc.lock.RUnlock()

	for key, milestones := range mc.milestones {
		mc.collectMilestones(ch, key, milestones)
	}

	if mc.usage == nil {
		return
	}

	requestCounts := mc.usage.GetRequestCounts()
	for repo, count := range requestCounts {
		ch <- prometheus.MustNewConstMetric(githubRequestsTotal, prometheus.CounterValue, float64(count), repo)
	}

	for repo, cost := range mc.usage.GetTotalCosts() {
		ch <- prometheus.MustNewConstMetric(githubCostsTotal, prometheus.CounterValue, float64(cost), repo)
	}

	ch <- prometheus.MustNewConstMetric(githubPointsRemaining, prometheus.GaugeValue, float64(mc.usage.GetRemainingPoints()))
}

func (mc *Collector) collectMilestones(ch chan<- prometheus.Metric, key reportKey, milestones []milestone.Milestone) {
	repo, report := key.repo, key.report
	seen := map[string]struct{}{}

	for _, m := range milestones {
		// a title can only be exported once per report
		if _, ok := seen[m.Title]; ok {
			continue
		}
		seen[m.Title] = struct{}{}

		empty := 0.0
		if m.Empty {
			empty = 1
		}

		ch <- prometheus.MustNewConstMetric(milestoneIssues, prometheus.GaugeValue, float64(m.Opened), repo, report, m.Title, "open")
		ch <- prometheus.MustNewConstMetric(milestoneIssues, prometheus.GaugeValue, float64(m.Closed), repo, report, m.Title, "closed")
		ch <- prometheus.MustNewConstMetric(milestoneProgress, prometheus.GaugeValue, m.Progress, repo, report, m.Title)
		ch <- prometheus.MustNewConstMetric(milestoneEmpty, prometheus.GaugeValue, empty, repo, report, m.Title)
	}
}

// WriteTextfile writes all metrics in the text exposition format, suitable
// for the node_exporter textfile collector.
func (mc *Collector) WriteTextfile(filename string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(mc); err != nil {
		return err
	}

	return prometheus.WriteToTextfile(filename, registry)
}
