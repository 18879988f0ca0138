// Package domain defines the immutable penguin observation table, the
// session filter state, and the summary statistics derived from a filtered
// view. It has no dependencies beyond the standard library so every other
// layer can consume it freely.
package domain

import (
	"fmt"
	"strings"
)

// Species identifies one of the three penguin species present in the
// observation table.
type Species string

// The fixed species enumeration. Filter inputs are constrained to this set.
const (
	SpeciesAdelie    Species = "Adelie"
	SpeciesGentoo    Species = "Gentoo"
	SpeciesChinstrap Species = "Chinstrap"
)

// AllSpecies returns the species enumeration in canonical display order.
func AllSpecies() []Species {
	return []Species{SpeciesAdelie, SpeciesGentoo, SpeciesChinstrap}
}

// ParseSpecies maps a label onto the species enumeration, ignoring case.
func ParseSpecies(label string) (Species, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "adelie":
		return SpeciesAdelie, nil
	case "gentoo":
		return SpeciesGentoo, nil
	case "chinstrap":
		return SpeciesChinstrap, nil
	default:
		return "", fmt.Errorf("unknown species %q", label)
	}
}

// Penguin is a single observed individual. Field names mirror the source
// table columns.
type Penguin struct {
	Species         Species `json:"species"`
	Island          string  `json:"island"`
	BillLengthMM    float64 `json:"bill_length_mm"`
	BillDepthMM     float64 `json:"bill_depth_mm"`
	FlipperLengthMM float64 `json:"flipper_length_mm"`
	BodyMassG       float64 `json:"body_mass_g"`
	Sex             string  `json:"sex,omitempty"`
	Year            int     `json:"year,omitempty"`
}

// GridColumns is the fixed column projection rendered by the data grid.
var GridColumns = []string{"species", "island", "bill_length_mm", "bill_depth_mm", "body_mass_g"}
