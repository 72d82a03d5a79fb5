package engine

import "sort"

// aggregator accumulates per-category totals across calculated results.
// One aggregator is built per run and finalized once, after the grand
// total is known, to compute percentages.
type aggregator struct {
	order  []string
	totals map[string]*CategoryTotal
}

func newAggregator() *aggregator {
	return &aggregator{totals: make(map[string]*CategoryTotal)}
}

// add records one calculated result. Skipped results never reach the
// aggregator.
func (a *aggregator) add(result ElementResult) {
	category := result.MaterialCategory
	total, ok := a.totals[category]
	if !ok {
		total = &CategoryTotal{}
		a.totals[category] = total
		a.order = append(a.order, category)
	}
	total.Count++
	total.CO2Kg += *result.CO2Kg
	total.MassKg += *result.MassKg
}

// finalize computes each category's percentage share of totalCO2Kg,
// rounds the totals, and returns the breakdown sorted descending by
// CO2. A zero grand total yields zero percentages rather than a
// division by zero.
func (a *aggregator) finalize(totalCO2Kg float64) CategoryBreakdown {
	names := make([]string, len(a.order))
	copy(names, a.order)
	sort.SliceStable(names, func(i, j int) bool {
		return a.totals[names[i]].CO2Kg > a.totals[names[j]].CO2Kg
	})

	breakdown := CategoryBreakdown{
		names:  names,
		totals: make(map[string]CategoryTotal, len(names)),
	}
	for _, name := range names {
		total := a.totals[name]
		pct := 0.0
		if totalCO2Kg != 0 {
			pct = round1(total.CO2Kg / totalCO2Kg * 100)
		}
		breakdown.totals[name] = CategoryTotal{
			Count:      total.Count,
			CO2Kg:      round2(total.CO2Kg),
			MassKg:     round2(total.MassKg),
			Percentage: pct,
		}
	}
	return breakdown
}
