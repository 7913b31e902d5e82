package report

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"btracker/internal/exporter"
	"btracker/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html.tmpl").Funcs(template.FuncMap{
	"num":    exporter.FormatDecimal,
	"volume": exporter.FormatVolume,
	"date":   func(t time.Time) string { return t.Format(exporter.DateFormat) },
	"cell": func(v *float64) template.HTML {
		if v == nil {
			return `<td class="missing">n/a</td>`
		}
		return template.HTML("<td>" + template.HTMLEscapeString(exporter.FormatDecimal(*v)) + "</td>")
	},
}).ParseFS(templateFS, "templates/index.html.tmpl"))

// Page is the data rendered into the HTML report.
type Page struct {
	Title         string
	RepositoryURL string
	AnalyticsURL  string
	WorkbookURL   string
	GeneratedAt   string
	Rows          []model.AnalyticsRow
	Histogram     model.Histogram
	Yearly        []model.YearlySummaryRow
}

// NewPage builds a Page for res. The links are relative to the page.
func NewPage(res *model.Result, title, repositoryURL, analyticsCSV, workbook string) *Page {
	return &Page{
		Title:         title,
		RepositoryURL: repositoryURL,
		AnalyticsURL:  analyticsCSV,
		WorkbookURL:   workbook,
		GeneratedAt:   res.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"),
		Rows:          res.Rows,
		Histogram:     res.Histogram,
		Yearly:        res.Yearly,
	}
}

// WriteHTML renders page to path.
func WriteHTML(path string, page *Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := pageTemplate.Execute(f, page); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("[INFO] wrote %s", path)
	return nil
}
