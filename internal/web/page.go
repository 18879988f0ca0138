// Package web renders the dashboard HTML page.
package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"penguindash/pkg/domain"
)

//go:embed dashboard.html.tmpl
var pageTemplate string

var page = template.Must(template.New("dashboard").Parse(pageTemplate))

// Link is an outbound navigation entry in the sidebar.
type Link struct {
	Label string
	Href  string
}

// DefaultLinks lists the sidebar navigation targets.
var DefaultLinks = []Link{
	{Label: "GitHub Source", Href: "https://github.com/penguindash/penguindash"},
	{Label: "Palmer Penguins", Href: "https://allisonhorst.github.io/palmerpenguins/"},
	{Label: "Issues", Href: "https://github.com/penguindash/penguindash/issues"},
}

// SpeciesOption is one checkbox in the species group.
type SpeciesOption struct {
	Label   string
	Checked bool
}

// GridRow is one rendered line of the data grid.
type GridRow struct {
	Species    string
	Island     string
	BillLength string
	BillDepth  string
	BodyMass   string
}

// PageData carries everything the dashboard template renders.
type PageData struct {
	Title       string
	MassMin     int
	MassMax     int
	MassValue   float64
	Species     []SpeciesOption
	Count       int
	MeanLength  string
	MeanDepth   string
	Rows        []GridRow
	GridColumns []string
	Links       []Link
	PlotURL     string
	GridFilters GridFilters
	TotalRows   int
	VisibleRows int
}

// GridFilters echoes the per-column grid filter inputs back into the form.
type GridFilters struct {
	Species   string
	Island    string
	MassMin   string
	MassMax   string
	LengthMin string
	LengthMax string
	DepthMin  string
	DepthMax  string
}

// BuildPageData assembles template data from the session's view and summary.
func BuildPageData(filter domain.FilterState, view domain.Table, summary domain.Summary, gridRows []domain.Penguin, filters GridFilters) PageData {
	species := make([]SpeciesOption, 0, len(domain.AllSpecies()))
	for _, sp := range domain.AllSpecies() {
		species = append(species, SpeciesOption{Label: string(sp), Checked: filter.Selected(sp)})
	}
	rows := make([]GridRow, 0, len(gridRows))
	for _, p := range gridRows {
		rows = append(rows, GridRow{
			Species:    string(p.Species),
			Island:     p.Island,
			BillLength: fmt.Sprintf("%.1f", p.BillLengthMM),
			BillDepth:  fmt.Sprintf("%.1f", p.BillDepthMM),
			BodyMass:   fmt.Sprintf("%.0f", p.BodyMassG),
		})
	}
	return PageData{
		Title:       "Penguins dashboard",
		MassMin:     domain.MassFilterMin,
		MassMax:     domain.MassFilterMax,
		MassValue:   filter.MaxMass,
		Species:     species,
		Count:       summary.Count,
		MeanLength:  summary.FormatMean(summary.MeanBillLengthMM),
		MeanDepth:   summary.FormatMean(summary.MeanBillDepthMM),
		Rows:        rows,
		GridColumns: domain.GridColumns,
		Links:       DefaultLinks,
		PlotURL:     "/api/v1/dashboard/plot",
		GridFilters: filters,
		TotalRows:   view.Len(),
		VisibleRows: len(gridRows),
	}
}

// Render writes the dashboard page to w.
func Render(w io.Writer, data PageData) error {
	return page.Execute(w, data)
}
