package domain

// Table is an immutable ordered collection of penguin observations. It is
// constructed once (at load or as the result of a filter pass) and never
// mutated; all consumers operate on read-only views.
type Table struct {
	rows []Penguin
}

// NewTable builds a table from rows, copying the slice so later mutation of
// the argument cannot reach the table.
func NewTable(rows []Penguin) Table {
	cloned := make([]Penguin, len(rows))
	copy(cloned, rows)
	return Table{rows: cloned}
}

// Len returns the row count.
func (t Table) Len() int { return len(t.rows) }

// Row returns the observation at index i.
func (t Table) Row(i int) Penguin { return t.rows[i] }

// Rows returns a defensive copy of all rows.
func (t Table) Rows() []Penguin {
	cloned := make([]Penguin, len(t.rows))
	copy(cloned, t.rows)
	return cloned
}

// Each calls fn for every row in order.
func (t Table) Each(fn func(Penguin)) {
	for _, row := range t.rows {
		fn(row)
	}
}

// Select returns a new table containing the rows for which keep returns
// true, preserving order.
func (t Table) Select(keep func(Penguin) bool) Table {
	var rows []Penguin
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return Table{rows: rows}
}

// MassBounds reports the minimum and maximum observed body mass. ok is false
// for an empty table.
func (t Table) MassBounds() (minMass, maxMass float64, ok bool) {
	if len(t.rows) == 0 {
		return 0, 0, false
	}
	minMass, maxMass = t.rows[0].BodyMassG, t.rows[0].BodyMassG
	for _, row := range t.rows[1:] {
		if row.BodyMassG < minMass {
			minMass = row.BodyMassG
		}
		if row.BodyMassG > maxMass {
			maxMass = row.BodyMassG
		}
	}
	return minMass, maxMass, true
}
