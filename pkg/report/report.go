// SPDX-FileCopyrightText: 2023 Christoph Mewes
// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"go.xrstf.de/ghmiles/pkg/github"
	"go.xrstf.de/ghmiles/pkg/milestone"
)

//go:embed page.html.tmpl
var pageTemplate string

// Page is everything a report is rendered from.
type Page struct {
	// Project is the display name, e.g. "Py4J".
	Project     string
	Repository  github.Repository
	GeneratedAt time.Time
	Milestones  []milestone.Milestone
}

type Renderer struct {
	tpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("page").Funcs(template.FuncMap{
		"percent": func(progress float64) string {
			return fmt.Sprintf("%.2f", progress)
		},
		"issueURL": func(repo github.Repository, number int) string {
			return fmt.Sprintf("https://github.com/%s/issues/%d", repo.FullName(), number)
		},
		"timestamp": func(t time.Time) string {
			return t.UTC().Format(time.RFC1123)
		},
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Renderer{tpl: tpl}, nil
}

// Render writes a complete HTML document for page to w.
func (r *Renderer) Render(w io.Writer, page Page) error {
	var buf bytes.Buffer

	if err := r.tpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	_, err := w.Write(bytes.TrimSpace(buf.Bytes()))

	return err
}
