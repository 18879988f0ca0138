package domain_test

import (
	"testing"

	"penguindash/pkg/domain"
)

func sampleTable() domain.Table {
	return domain.NewTable([]domain.Penguin{
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: 39.1, BillDepthMM: 18.7, FlipperLengthMM: 181, BodyMassG: 3750},
		{Species: domain.SpeciesAdelie, Island: "Dream", BillLengthMM: 36.4, BillDepthMM: 17.0, FlipperLengthMM: 195, BodyMassG: 2850},
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 46.1, BillDepthMM: 13.2, FlipperLengthMM: 211, BodyMassG: 4500},
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 59.6, BillDepthMM: 17.0, FlipperLengthMM: 230, BodyMassG: 6050},
		{Species: domain.SpeciesChinstrap, Island: "Dream", BillLengthMM: 46.5, BillDepthMM: 17.9, FlipperLengthMM: 192, BodyMassG: 3500},
	})
}

func TestParseSpecies(t *testing.T) {
	cases := []struct {
		in      string
		want    domain.Species
		wantErr bool
	}{
		{"Adelie", domain.SpeciesAdelie, false},
		{"gentoo", domain.SpeciesGentoo, false},
		{" Chinstrap ", domain.SpeciesChinstrap, false},
		{"Emperor", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := domain.ParseSpecies(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSpecies(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpecies(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSpecies(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNewFilterNormalizes(t *testing.T) {
	f := domain.NewFilter(100, []domain.Species{domain.SpeciesAdelie, "Emperor"})
	if f.MaxMass != domain.MassFilterMin {
		t.Fatalf("expected clamp to %d, got %v", domain.MassFilterMin, f.MaxMass)
	}
	if got := f.Species(); len(got) != 1 || got[0] != domain.SpeciesAdelie {
		t.Fatalf("unexpected species selection: %v", got)
	}

	f = domain.NewFilter(9000, domain.AllSpecies())
	if f.MaxMass != domain.MassFilterMax {
		t.Fatalf("expected clamp to %d, got %v", domain.MassFilterMax, f.MaxMass)
	}
}

func TestFilterEqual(t *testing.T) {
	a := domain.NewFilter(4000, []domain.Species{domain.SpeciesAdelie, domain.SpeciesGentoo})
	b := domain.NewFilter(4000, []domain.Species{domain.SpeciesGentoo, domain.SpeciesAdelie})
	if !a.Equal(b) {
		t.Fatalf("expected equal filters regardless of selection order")
	}
	c := domain.NewFilter(4000, []domain.Species{domain.SpeciesAdelie})
	if a.Equal(c) {
		t.Fatalf("expected inequality on differing species sets")
	}
	d := domain.NewFilter(4001, []domain.Species{domain.SpeciesAdelie, domain.SpeciesGentoo})
	if a.Equal(d) {
		t.Fatalf("expected inequality on differing mass bounds")
	}
}

func TestApplySoundAndComplete(t *testing.T) {
	base := sampleTable()
	filter := domain.NewFilter(4000, []domain.Species{domain.SpeciesAdelie, domain.SpeciesChinstrap})
	view := filter.Apply(base)

	view.Each(func(p domain.Penguin) {
		if !filter.Selected(p.Species) {
			t.Errorf("row with unselected species %s in view", p.Species)
		}
		if p.BodyMassG >= filter.MaxMass {
			t.Errorf("row with mass %v at or above bound %v in view", p.BodyMassG, filter.MaxMass)
		}
	})

	want := 0
	base.Each(func(p domain.Penguin) {
		if filter.Match(p) {
			want++
		}
	})
	if view.Len() != want {
		t.Fatalf("view has %d rows, predicate admits %d", view.Len(), want)
	}
}

func TestApplyBoundaries(t *testing.T) {
	base := sampleTable()

	empty := domain.NewFilter(domain.MassFilterMax, nil).Apply(base)
	if empty.Len() != 0 {
		t.Fatalf("empty species selection produced %d rows", empty.Len())
	}

	minMass, maxMass, ok := base.MassBounds()
	if !ok {
		t.Fatal("expected mass bounds on non-empty table")
	}
	// Strict inequality excludes the row equal to the bound.
	atMin := domain.NewFilter(minMass, domain.AllSpecies()).Apply(base)
	if atMin.Len() != 0 {
		t.Fatalf("bound at minimum mass produced %d rows", atMin.Len())
	}

	full := domain.NewFilter(maxMass+1, domain.AllSpecies()).Apply(base)
	if full.Len() != base.Len() {
		t.Fatalf("bound above maximum produced %d of %d rows", full.Len(), base.Len())
	}
}

func TestTableImmutability(t *testing.T) {
	rows := []domain.Penguin{{Species: domain.SpeciesAdelie, BodyMassG: 3000}}
	table := domain.NewTable(rows)
	rows[0].BodyMassG = 9999
	if got := table.Row(0).BodyMassG; got != 3000 {
		t.Fatalf("table observed caller mutation: %v", got)
	}
	out := table.Rows()
	out[0].BodyMassG = 1
	if got := table.Row(0).BodyMassG; got != 3000 {
		t.Fatalf("table observed mutation through Rows copy: %v", got)
	}
}
