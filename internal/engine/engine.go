package engine

import (
	"context"
	"sort"
	"time"

	"github.com/buildsense/carbontally/internal/logging"
	"github.com/buildsense/carbontally/internal/matdb"
)

// Meta carries the run provenance stamped on the report summary. The
// timestamp is injected rather than read inside Calculate so the engine
// stays a pure function of its inputs.
type Meta struct {
	InputFile string
	RunID     string
	Timestamp time.Time
}

// Calculate computes the embodied-carbon report for the given elements
// against the material database. Per-element data gaps route the
// element to the skipped partition with a descriptive warning; they
// never abort the run.
func Calculate(ctx context.Context, elements []Element, db *matdb.Database, meta Meta) Report {
	log := logging.ComponentLogger(logging.FromContext(ctx), "engine")
	log.Debug().
		Str("run_id", meta.RunID).
		Int("elements", len(elements)).
		Msg("starting CO2 calculation")

	steelCO2PerKg := db.SteelFactor()

	detailed := make([]ElementResult, 0, len(elements))
	skipped := make([]ElementResult, 0)
	agg := newAggregator()

	var totalCO2Kg, totalMassKg float64
	for _, el := range elements {
		result := calculateElement(el, db, steelCO2PerKg)
		if result.Skipped() {
			skipped = append(skipped, result)
			continue
		}
		detailed = append(detailed, result)
		totalCO2Kg += *result.CO2Kg
		totalMassKg += *result.MassKg
		agg.add(result)
	}

	// Highest-impact elements first; downstream consumers rely on this.
	sort.SliceStable(detailed, func(i, j int) bool {
		return *detailed[i].CO2Kg > *detailed[j].CO2Kg
	})

	completenessPct := 0.0
	if len(elements) > 0 {
		completenessPct = round1(float64(len(detailed)) / float64(len(elements)) * 100)
	}

	report := Report{
		Summary: Summary{
			Timestamp:       meta.Timestamp.Format(time.RFC3339),
			RunID:           meta.RunID,
			InputFile:       meta.InputFile,
			DatabaseVersion: db.Version,
			TotalElements:   len(elements),
			Calculated:      len(detailed),
			Skipped:         len(skipped),
			TotalCO2Kg:      round2(totalCO2Kg),
			TotalMassKg:     round2(totalMassKg),
			CompletenessPct: completenessPct,
		},
		ByCategory:      agg.finalize(totalCO2Kg),
		DetailedResults: detailed,
		SkippedElements: skipped,
	}

	log.Info().
		Str("run_id", meta.RunID).
		Int("calculated", report.Summary.Calculated).
		Int("skipped", report.Summary.Skipped).
		Float64("total_co2_kg", report.Summary.TotalCO2Kg).
		Float64("completeness_pct", report.Summary.CompletenessPct).
		Msg("CO2 calculation complete")
	return report
}
