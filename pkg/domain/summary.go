package domain

import "fmt"

// Summary holds the three scalar metrics displayed above the plot and grid.
// Defined is false when the view is empty, in which case the means are
// undefined and render as a placeholder rather than NaN.
type Summary struct {
	Count            int
	MeanBillLengthMM float64
	MeanBillDepthMM  float64
	Defined          bool
}

// Summarize computes the row count and the arithmetic means of bill length
// and depth over the table.
func Summarize(t Table) Summary {
	n := t.Len()
	if n == 0 {
		return Summary{}
	}
	var sumLength, sumDepth float64
	t.Each(func(p Penguin) {
		sumLength += p.BillLengthMM
		sumDepth += p.BillDepthMM
	})
	return Summary{
		Count:            n,
		MeanBillLengthMM: sumLength / float64(n),
		MeanBillDepthMM:  sumDepth / float64(n),
		Defined:          true,
	}
}

// MeanPlaceholder is how undefined means render on the dashboard.
const MeanPlaceholder = "—"

// FormatMean renders a mean with one decimal, or the placeholder when the
// summary is undefined.
func (s Summary) FormatMean(value float64) string {
	if !s.Defined {
		return MeanPlaceholder
	}
	return fmt.Sprintf("%.1f", value)
}
