package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance/internal/cache"
	"finance/internal/core"
	ports "finance/internal/sheets"
	"finance/web"
)

var _ ports.ReportWriter = (*Dashboard)(nil)

const dashboardCacheTTL = 10 * time.Minute

// Dashboard renders a report as a standalone HTML page written to a file.
type Dashboard struct {
	path  string
	tmpl  *template.Template
	css   template.CSS
	cache *cache.LRUCache[uint64, []byte]
}

type dashboardView struct {
	CSS        template.CSS
	Revision   uint64
	Summary    core.Summary
	Negative   bool
	Categories []categoryView
	TableTitle string
	Rows       []core.Row
}

type categoryView struct {
	Name       string
	Amount     core.Money
	Share      string
	ShareLabel string
	Width      string
}

// NewDashboard parses the embedded template. Rendered pages are cached per
// report revision, at most cacheSize of them.
func NewDashboard(path string, cacheSize int) (*Dashboard, error) {
	if path == "" {
		return nil, fmt.Errorf("dashboard path is required")
	}
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	css, err := web.StaticFS.ReadFile("static/dashboard.css")
	if err != nil {
		return nil, fmt.Errorf("read dashboard stylesheet: %w", err)
	}
	return &Dashboard{
		path:  path,
		tmpl:  tmpl,
		css:   template.CSS(css),
		cache: cache.NewLRUCache[uint64, []byte](cacheSize, dashboardCacheTTL),
	}, nil
}

// Cache exposes the render cache so it can be swept by a cache.Manager.
func (d *Dashboard) Cache() *cache.LRUCache[uint64, []byte] {
	return d.cache
}

// Render returns the HTML page for r.
func (d *Dashboard) Render(r core.Report) ([]byte, error) {
	if page, ok := d.cache.Get(r.Revision); ok {
		return page, nil
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, newDashboardView(r, d.css)); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	page := buf.Bytes()
	d.cache.Set(r.Revision, page)
	return page, nil
}

// WriteReport implements sheets.ReportWriter; the ref is the absolute path
// of the written file.
func (d *Dashboard) WriteReport(ctx context.Context, r core.Report) (string, error) {
	page, err := d.Render(r)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(d.path)
	if err != nil {
		return "", fmt.Errorf("resolve dashboard path: %w", err)
	}
	if dir := filepath.Dir(abs); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create dashboard directory: %w", err)
		}
	}

	// Write through a temp file so a reader never sees a half-written page.
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, page, 0644); err != nil {
		return "", fmt.Errorf("write dashboard: %w", err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace dashboard: %w", err)
	}

	slog.InfoContext(ctx, "Dashboard written", "path", abs, "revision", r.Revision, "bytes", len(page))
	return abs, nil
}

func newDashboardView(r core.Report, css template.CSS) dashboardView {
	v := dashboardView{
		CSS:        css,
		Revision:   r.Revision,
		Summary:    r.Summary,
		Negative:   r.Summary.Balance.Cents < 0,
		TableTitle: "Transaction History",
		Rows:       r.Rows,
	}
	if len(r.Rows) == 0 {
		v.TableTitle = "No Transactions Yet"
		v.Rows = []core.Row{{Kind: "-", Category: "-", Amount: "-"}}
	}

	var total, largest int64
	for _, c := range r.Categories {
		total += c.Amount.Cents
		largest = max(largest, c.Amount.Cents)
	}
	for _, c := range r.Categories {
		share := percent(c.Amount.Cents, total)
		v.Categories = append(v.Categories, categoryView{
			Name:       c.Name,
			Amount:     c.Amount,
			Share:      fmt.Sprintf("%.1f", share),
			ShareLabel: fmt.Sprintf("%.1f%%", share),
			Width:      fmt.Sprintf("%.1f", percent(c.Amount.Cents, largest)),
		})
	}
	return v
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
