package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.xrstf.de/ghmiles/pkg/client"
	"go.xrstf.de/ghmiles/pkg/config"
	"go.xrstf.de/ghmiles/pkg/fetcher"
	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/metrics"
	"go.xrstf.de/ghmiles/pkg/milestone"
	"go.xrstf.de/ghmiles/pkg/report"

	"github.com/sirupsen/logrus"
)

type options struct {
	repositories repositoryList
	labels       stringList
	title        string
	mode         string
	pattern      string
	ascending    bool
	output       string
	configFile   string
	metricsFile  string
	concurrency  int
	retries      int
	debugLog     bool
}

type AppContext struct {
	ctx        context.Context
	source     milestone.Source
	prefetcher *fetcher.Prefetcher
	renderer   *report.Renderer
	collector  *metrics.Collector
	options    *options
}

func main() {
	opt := options{
		mode:        config.ModeLabel,
		pattern:     config.PatternVersion,
		concurrency: 1,
		retries:     2,
	}

	flag.Var(&opt.repositories, "repo", "repository (owner/name format) to generate a report for, can be given multiple times")
	flag.Var(&opt.labels, "labels", "comma-separated list of milestone labels, in report order (overrides -pattern)")
	flag.StringVar(&opt.title, "title", opt.title, "project name shown in the report (defaults to the repository name)")
	flag.StringVar(&opt.mode, "mode", opt.mode, `how issues are grouped into milestones, "label" or "tag"`)
	flag.StringVar(&opt.pattern, "pattern", opt.pattern, `milestone labels/tags: "v" (v0.1), "num" (0.1), "auto" or a regular expression`)
	flag.BoolVar(&opt.ascending, "ascending", opt.ascending, "list the oldest milestone first")
	flag.StringVar(&opt.output, "output", opt.output, "HTML file to write (default: stdout)")
	flag.StringVar(&opt.configFile, "config", opt.configFile, "YAML file with additional report definitions")
	flag.StringVar(&opt.metricsFile, "metrics-file", opt.metricsFile, "write milestone metrics in Prometheus text format to this file")
	flag.IntVar(&opt.concurrency, "concurrency", opt.concurrency, "number of milestones to fetch in parallel (1 fetches them lazily one after another)")
	flag.IntVar(&opt.retries, "retries", opt.retries, "number of times a failed API request is retried")
	flag.BoolVar(&opt.debugLog, "debug", opt.debugLog, "enable more verbose logging")
	flag.Parse()

	// setup logging
	var log = logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC1123,
	})

	if opt.debugLog {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(&opt)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if opt.concurrency < 1 {
		log.Fatal("-concurrency must be >= 1.")
	}

	token := os.Getenv("GITHUB_TOKEN")
	if len(token) == 0 {
		log.Fatal("No GITHUB_TOKEN environment variable defined.")
	}

	// setup API client
	ctx := context.Background()

	client, err := client.NewClient(ctx, log.WithField("component", "client"), token, opt.retries)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	appCtx := AppContext{
		ctx:       ctx,
		source:    client,
		renderer:  renderer,
		collector: metrics.NewCollector(client),
		options:   &opt,
	}

	if opt.concurrency > 1 {
		appCtx.prefetcher = fetcher.NewPrefetcher(client, opt.concurrency, log.WithField("component", "fetcher"))
		appCtx.source = appCtx.prefetcher
	}

	failed := 0
	for _, r := range cfg.Reports {
		reportLog := log.WithField("repo", r.Repo)

		if err := generate(appCtx, reportLog, r); err != nil {
			reportLog.Errorf("Failed to generate report: %v", err)
			failed++
		}
	}

	if opt.metricsFile != "" {
		if err := appCtx.collector.WriteTextfile(opt.metricsFile); err != nil {
			log.Errorf("Failed to write metrics: %v", err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// loadConfig combines the reports from -config with the one described by
// the command line flags.
func loadConfig(opt *options) (*config.Config, error) {
	cfg := &config.Config{}

	if opt.configFile != "" {
		loaded, err := config.Load(opt.configFile)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	for _, repo := range opt.repositories {
		r := config.Report{
			Repo:      repo.FullName(),
			Title:     opt.title,
			Mode:      opt.mode,
			Pattern:   opt.pattern,
			Labels:    opt.labels,
			Ascending: opt.ascending,
			Output:    opt.output,
		}
		r.Default()

		cfg.Reports = append(cfg.Reports, r)
	}

	if len(cfg.Reports) == 0 {
		return nil, fmt.Errorf("no -repo or -config defined")
	}

	return cfg, cfg.Validate()
}

func generate(appCtx AppContext, log logrus.FieldLogger, r config.Report) error {
	repo, err := r.Repository()
	if err != nil {
		return err
	}

	log.Info("Loading milestones…")

	series, err := buildSeries(appCtx, r, repo)
	if err != nil {
		return err
	}

	log.Debugf("Found %d milestones.", series.Len())

	milestones := []milestone.Milestone{}
	for series.Next() {
		m := series.Milestone()
		log.WithField("milestone", m.Title).Debug(m.String())

		milestones = append(milestones, m)
	}

	if err := series.Err(); err != nil {
		return err
	}

	appCtx.collector.Observe(repo.FullName(), r.Title, milestones)

	page := report.Page{
		Project:     r.Title,
		Repository:  repo,
		GeneratedAt: time.Now(),
		Milestones:  milestones,
	}

	if r.Output == "" || r.Output == "-" {
		return appCtx.renderer.Render(os.Stdout, page)
	}

	if err := writeReport(appCtx.renderer, r.Output, page); err != nil {
		return err
	}

	log.Infof("Wrote %d milestones to %s.", len(milestones), r.Output)

	return nil
}

func buildSeries(appCtx AppContext, r config.Report, repo github.Repository) (*milestone.Series, error) {
	descending := !r.Ascending

	pattern, err := r.MilestonePattern()
	if err != nil {
		return nil, err
	}

	if r.Mode == config.ModeTag {
		return milestone.ByTag(appCtx.ctx, appCtx.source, repo, pattern, descending)
	}

	var series *milestone.Series
	if len(r.Labels) > 0 {
		series = milestone.ByLabels(appCtx.ctx, appCtx.source, repo, r.Labels)
	} else {
		series, err = milestone.ByLabel(appCtx.ctx, appCtx.source, repo, pattern, descending)
		if err != nil {
			return nil, err
		}
	}

	if appCtx.prefetcher != nil {
		appCtx.prefetcher.Prefetch(appCtx.ctx, repo, series.Titles())
	}

	return series, nil
}

func writeReport(renderer *report.Renderer, filename string, page report.Page) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := renderer.Render(f, page); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
