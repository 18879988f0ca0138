package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"penguindash/internal/web"
	"penguindash/pkg/domain"
)

// gridFilter narrows the data grid independently of the session filter:
// substring matches on the text columns and inclusive numeric ranges on the
// measurement columns. It affects only what the grid shows, never the
// summary metrics or the plot.
type gridFilter struct {
	species   string
	island    string
	lengthMin *float64
	lengthMax *float64
	depthMin  *float64
	depthMax  *float64
	massMin   *float64
	massMax   *float64
}

// gridFromQuery parses grid_* query parameters into a grid filter plus the
// raw values echoed back into the form inputs.
func gridFromQuery(query url.Values) (gridFilter, web.GridFilters, error) {
	raw := web.GridFilters{
		Species:   strings.TrimSpace(query.Get("grid_species")),
		Island:    strings.TrimSpace(query.Get("grid_island")),
		LengthMin: strings.TrimSpace(query.Get("grid_length_min")),
		LengthMax: strings.TrimSpace(query.Get("grid_length_max")),
		DepthMin:  strings.TrimSpace(query.Get("grid_depth_min")),
		DepthMax:  strings.TrimSpace(query.Get("grid_depth_max")),
		MassMin:   strings.TrimSpace(query.Get("grid_mass_min")),
		MassMax:   strings.TrimSpace(query.Get("grid_mass_max")),
	}

	filter := gridFilter{species: raw.Species, island: raw.Island}
	for _, bound := range []struct {
		name  string
		value string
		dst   **float64
	}{
		{"grid_length_min", raw.LengthMin, &filter.lengthMin},
		{"grid_length_max", raw.LengthMax, &filter.lengthMax},
		{"grid_depth_min", raw.DepthMin, &filter.depthMin},
		{"grid_depth_max", raw.DepthMax, &filter.depthMax},
		{"grid_mass_min", raw.MassMin, &filter.massMin},
		{"grid_mass_max", raw.MassMax, &filter.massMax},
	} {
		if bound.value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(bound.value, 64)
		if err != nil {
			return gridFilter{}, web.GridFilters{}, fmt.Errorf("invalid %s %q", bound.name, bound.value)
		}
		value := parsed
		*bound.dst = &value
	}
	return filter, raw, nil
}

func (g gridFilter) apply(rows []domain.Penguin) []domain.Penguin {
	out := make([]domain.Penguin, 0, len(rows))
	for _, p := range rows {
		if g.match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (g gridFilter) match(p domain.Penguin) bool {
	if g.species != "" && !strings.Contains(strings.ToLower(string(p.Species)), strings.ToLower(g.species)) {
		return false
	}
	if g.island != "" && !strings.Contains(strings.ToLower(p.Island), strings.ToLower(g.island)) {
		return false
	}
	if !inRange(p.BillLengthMM, g.lengthMin, g.lengthMax) {
		return false
	}
	if !inRange(p.BillDepthMM, g.depthMin, g.depthMax) {
		return false
	}
	if !inRange(p.BodyMassG, g.massMin, g.massMax) {
		return false
	}
	return true
}

func inRange(value float64, lower, upper *float64) bool {
	if lower != nil && value < *lower {
		return false
	}
	if upper != nil && value > *upper {
		return false
	}
	return true
}
