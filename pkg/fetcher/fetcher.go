// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

type labelJob struct {
	done   chan struct{}
	issues []github.Issue
	err    error
}

// Prefetcher is a milestone.Source that fetches the issues of many labels
// in parallel. Lookups for a prefetched label wait for its own result, so
// a series reading from it keeps its order and a failed label only
// surfaces at its own position. Everything else is passed through.
type Prefetcher struct {
	source      milestone.Source
	concurrency int
	log         logrus.FieldLogger
	lock        sync.RWMutex
	jobs        map[string]*labelJob
	pending     sync.WaitGroup
}

var _ milestone.Source = &Prefetcher{}

func NewPrefetcher(source milestone.Source, concurrency int, log logrus.FieldLogger) *Prefetcher {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Prefetcher{
		source:      source,
		concurrency: concurrency,
		log:         log,
		jobs:        map[string]*labelJob{},
	}
}

func jobKey(repo github.Repository, label string) string {
	return fmt.Sprintf("%s#%s", repo.FullName(), label)
}

// Prefetch starts fetching the issues for all labels in the background and
// returns immediately. Cancelling ctx skips fetches that have not started
// yet; their lookups fail with a *milestone.SourceError wrapping the
// context error.
func (p *Prefetcher) Prefetch(ctx context.Context, repo github.Repository, labels []string) {
	log := p.log.WithField("repo", repo.FullName())
	log.Debugf("Prefetching %d labels with concurrency %d.", len(labels), p.concurrency)

	scheduled := []string{}
	jobs := []*labelJob{}

	p.lock.Lock()
	for _, label := range labels {
		key := jobKey(repo, label)
		if _, exists := p.jobs[key]; exists {
			continue
		}

		job := &labelJob{done: make(chan struct{})}
		p.jobs[key] = job

		scheduled = append(scheduled, label)
		jobs = append(jobs, job)
	}
	p.lock.Unlock()

	p.pending.Add(1)

	go func() {
		defer p.pending.Done()

		var group errgroup.Group
		group.SetLimit(p.concurrency)

		for i := range scheduled {
			label, job := scheduled[i], jobs[i]

			group.Go(func() error {
				defer close(job.done)

				if err := ctx.Err(); err != nil {
					job.err = &milestone.SourceError{
						Op:    "ListIssuesByLabel",
						Repo:  repo.FullName(),
						Label: label,
						Err:   err,
					}
					return nil
				}

				job.issues, job.err = p.source.ListIssuesByLabel(ctx, repo, label)
				if job.err != nil {
					log.WithField("label", label).Debugf("Prefetch failed: %v", job.err)
				}

				// errors are kept per label, siblings must not be cancelled
				return nil
			})
		}

		_ = group.Wait()
	}()
}

// Wait blocks until all prefetches started so far are finished.
func (p *Prefetcher) Wait() {
	p.pending.Wait()
}

func (p *Prefetcher) ListIssuesByLabel(ctx context.Context, repo github.Repository, label string) ([]github.Issue, error) {
	p.lock.RLock()
	job, ok := p.jobs[jobKey(repo, label)]
	p.lock.RUnlock()

	if !ok {
		return p.source.ListIssuesByLabel(ctx, repo, label)
	}

	select {
	case <-job.done:
		return job.issues, job.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Prefetcher) ListLabels(ctx context.Context, repo github.Repository) ([]string, error) {
	return p.source.ListLabels(ctx, repo)
}

func (p *Prefetcher) ListTags(ctx context.Context, repo github.Repository) ([]github.Tag, error) {
	return p.source.ListTags(ctx, repo)
}

func (p *Prefetcher) ListAllIssues(ctx context.Context, repo github.Repository) ([]github.Issue, error) {
	return p.source.ListAllIssues(ctx, repo)
}
