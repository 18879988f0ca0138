package dataset

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"penguindash/pkg/domain"
)

//go:embed penguins.csv
var penguinsCSV string

// EmbeddedSource serves the bundled Palmer-penguins observations. It is the
// default source and needs no external services.
type EmbeddedSource struct{}

func (EmbeddedSource) Driver() Driver { return DriverEmbed }

func (EmbeddedSource) Load(_ context.Context) (domain.Table, error) {
	return ParseCSV(strings.NewReader(penguinsCSV))
}

// ParseCSV decodes observation rows from r. The header row is required and
// columns may appear in any order. Rows with a missing ("NA") measurement or
// mass are skipped, mirroring the incomplete observations in the upstream
// data; a malformed numeric value in an otherwise complete row is an error.
func ParseCSV(r io.Reader) (domain.Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"species", "island", "bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g"} {
		if _, ok := col[required]; !ok {
			return domain.Table{}, fmt.Errorf("missing column %s", required)
		}
	}

	var rows []domain.Penguin
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read row %d: %w", line, err)
		}
		line++

		if incomplete(record, col) {
			continue
		}

		species, err := domain.ParseSpecies(record[col["species"]])
		if err != nil {
			return domain.Table{}, fmt.Errorf("row %d: %w", line, err)
		}
		p := domain.Penguin{Species: species, Island: strings.TrimSpace(record[col["island"]])}
		if p.BillLengthMM, err = parseFloat(record[col["bill_length_mm"]]); err != nil {
			return domain.Table{}, fmt.Errorf("row %d bill_length_mm: %w", line, err)
		}
		if p.BillDepthMM, err = parseFloat(record[col["bill_depth_mm"]]); err != nil {
			return domain.Table{}, fmt.Errorf("row %d bill_depth_mm: %w", line, err)
		}
		if p.FlipperLengthMM, err = parseFloat(record[col["flipper_length_mm"]]); err != nil {
			return domain.Table{}, fmt.Errorf("row %d flipper_length_mm: %w", line, err)
		}
		if p.BodyMassG, err = parseFloat(record[col["body_mass_g"]]); err != nil {
			return domain.Table{}, fmt.Errorf("row %d body_mass_g: %w", line, err)
		}
		if i, ok := col["sex"]; ok && !isNA(record[i]) {
			p.Sex = strings.TrimSpace(record[i])
		}
		if i, ok := col["year"]; ok && !isNA(record[i]) {
			year, err := strconv.Atoi(strings.TrimSpace(record[i]))
			if err != nil {
				return domain.Table{}, fmt.Errorf("row %d year: %w", line, err)
			}
			p.Year = year
		}
		rows = append(rows, p)
	}
	if len(rows) == 0 {
		return domain.Table{}, fmt.Errorf("no complete observations in input")
	}
	return domain.NewTable(rows), nil
}

func incomplete(record []string, col map[string]int) bool {
	for _, name := range []string{"bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g"} {
		if isNA(record[col[name]]) {
			return true
		}
	}
	return false
}

func isNA(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "NA")
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}
