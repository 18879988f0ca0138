package domain

import "sort"

// Slider bounds for the mass filter. Inputs outside the range clamp rather
// than error, matching the behavior of a bounded slider control.
const (
	MassFilterMin     = 2000
	MassFilterMax     = 6000
	MassFilterDefault = 6000
)

// FilterState is the pair of user-controlled filter values owned by one
// session: an exclusive upper mass bound and the set of selected species.
// The zero value is not meaningful; use DefaultFilter.
type FilterState struct {
	MaxMass float64
	species map[Species]struct{}
}

// DefaultFilter returns the session-start state: slider at its maximum and
// all species selected.
func DefaultFilter() FilterState {
	return NewFilter(MassFilterDefault, AllSpecies())
}

// NewFilter builds a normalized filter state. MaxMass clamps into the slider
// range; species outside the known enumeration are dropped.
func NewFilter(maxMass float64, selected []Species) FilterState {
	if maxMass < MassFilterMin {
		maxMass = MassFilterMin
	}
	if maxMass > MassFilterMax {
		maxMass = MassFilterMax
	}
	set := make(map[Species]struct{}, len(selected))
	for _, sp := range selected {
		switch sp {
		case SpeciesAdelie, SpeciesGentoo, SpeciesChinstrap:
			set[sp] = struct{}{}
		}
	}
	return FilterState{MaxMass: maxMass, species: set}
}

// Selected reports whether sp is part of the current selection.
func (f FilterState) Selected(sp Species) bool {
	_, ok := f.species[sp]
	return ok
}

// Species returns the selected species sorted in canonical order.
func (f FilterState) Species() []Species {
	out := make([]Species, 0, len(f.species))
	for sp := range f.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return speciesRank(out[i]) < speciesRank(out[j]) })
	return out
}

// Equal reports whether two filter states hold identical values. The derived
// view cache keys on this comparison.
func (f FilterState) Equal(other FilterState) bool {
	if f.MaxMass != other.MaxMass || len(f.species) != len(other.species) {
		return false
	}
	for sp := range f.species {
		if _, ok := other.species[sp]; !ok {
			return false
		}
	}
	return true
}

// Match is the filter predicate: species selected AND mass strictly below
// the threshold.
func (f FilterState) Match(p Penguin) bool {
	return f.Selected(p.Species) && p.BodyMassG < f.MaxMass
}

// Apply returns the subset of base satisfying the predicate.
func (f FilterState) Apply(base Table) Table {
	return base.Select(f.Match)
}

func speciesRank(sp Species) int {
	for i, candidate := range AllSpecies() {
		if candidate == sp {
			return i
		}
	}
	return len(AllSpecies())
}
