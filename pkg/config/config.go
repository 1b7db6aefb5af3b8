// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

const (
	ModeLabel = "label"
	ModeTag   = "tag"

	PatternVersion = "v"
	PatternNumeric = "num"
	PatternAuto    = "auto"
)

type Config struct {
	Reports []Report `yaml:"reports"`
}

// Report describes one generated HTML page.
type Report struct {
	Repo  string `yaml:"repo"`
	Title string `yaml:"title"`
	// Mode is either "label" or "tag".
	Mode string `yaml:"mode"`
	// Pattern is "v", "num", "auto" or a regular expression.
	Pattern string `yaml:"pattern"`
	// Labels overrides Pattern with an explicit list of milestone labels.
	Labels    []string `yaml:"labels"`
	Ascending bool     `yaml:"ascending"`
	Output    string   `yaml:"output"`
}

func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return Parse(content)
}

func Parse(content []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	for i := range cfg.Reports {
		cfg.Reports[i].Default()
	}

	return cfg, nil
}

// Default fills in the label mode, the "v" pattern and the repository
// name as title.
func (r *Report) Default() {
	if r.Mode == "" {
		r.Mode = ModeLabel
	}

	if r.Pattern == "" {
		r.Pattern = PatternVersion
	}

	if r.Title == "" {
		if repo, err := github.ParseRepository(r.Repo); err == nil {
			r.Title = repo.Name
		}
	}
}

func (r *Report) Repository() (github.Repository, error) {
	return github.ParseRepository(r.Repo)
}

// MilestonePattern returns the pattern selecting milestone labels or tags.
// For "auto" it returns nil, callers then use milestone.DetectPattern.
func (r *Report) MilestonePattern() (milestone.Pattern, error) {
	switch r.Pattern {
	case PatternVersion:
		return milestone.VersionPattern, nil
	case PatternNumeric:
		return milestone.NumericPattern, nil
	case PatternAuto:
		return nil, nil
	}

	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	return milestone.MatchRegexp(re), nil
}

func (r *Report) Validate() error {
	if _, err := r.Repository(); err != nil {
		return err
	}

	if r.Mode != ModeLabel && r.Mode != ModeTag {
		return fmt.Errorf("invalid mode %q, must be %q or %q", r.Mode, ModeLabel, ModeTag)
	}

	if r.Mode == ModeTag && len(r.Labels) > 0 {
		return errors.New("explicit labels cannot be combined with tag mode")
	}

	seen := map[string]struct{}{}
	for _, label := range r.Labels {
		if _, exists := seen[label]; exists {
			return fmt.Errorf("label %q is listed more than once", label)
		}
		seen[label] = struct{}{}
	}

	if _, err := r.MilestonePattern(); err != nil {
		return err
	}

	return nil
}

func (c *Config) Validate() error {
	if len(c.Reports) == 0 {
		return errors.New("no reports configured")
	}

	outputs := map[string]struct{}{}
	names := map[string]struct{}{}

	for i, report := range c.Reports {
		if err := report.Validate(); err != nil {
			return fmt.Errorf("report %d (%s): %w", i, report.Repo, err)
		}

		// metrics are keyed by repository and report title
		name := report.Repo + "#" + report.Title
		if _, exists := names[name]; exists {
			return fmt.Errorf("report %d (%s): title %q is used more than once for this repository", i, report.Repo, report.Title)
		}
		names[name] = struct{}{}

		if len(c.Reports) > 1 {
			if report.Output == "" {
				return fmt.Errorf("report %d (%s): an output file is required when generating multiple reports", i, report.Repo)
			}

			if _, exists := outputs[report.Output]; exists {
				return fmt.Errorf("report %d (%s): output %q is used more than once", i, report.Repo, report.Output)
			}

			outputs[report.Output] = struct{}{}
		}
	}

	return nil
}
