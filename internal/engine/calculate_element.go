package engine

import (
	"math"

	"github.com/buildsense/carbontally/internal/matdb"
)

// calculateElement runs the per-element decision sequence. It stops at
// the first data gap and marks the element skipped with an explanatory
// warning; otherwise it produces a volume_based result with mass, CO2
// and any fallback warnings collected along the way.
//
// The sequencing matters: density is confirmed resolvable before mass is
// computed, and factor-resolution warnings survive onto successful
// results.
func calculateElement(el Element, db *matdb.Database, steelCO2PerKg float64) ElementResult {
	result := ElementResult{
		GlobalID:    el.GlobalID,
		ElementName: el.Name,
		ElementType: el.ElementType,
		VolumeM3:    el.VolumeM3,
		Confidence:  round2(el.Confidence),
		Warnings:    []string{},
	}

	if el.VolumeM3 == nil || *el.VolumeM3 == 0 {
		return skip(result, "No volume data - cannot calculate CO2")
	}

	if el.Material.Category == "" {
		return skip(result, "No material category - cannot calculate CO2")
	}
	result.MaterialCategory = el.Material.Category

	res, found := db.Resolve(el.Material.Category, el.Material.Subcategory)
	result.Warnings = append(result.Warnings, res.Warnings...)
	if !found {
		result.CalculationMethod = CalculationSkipped
		return result
	}

	if res.DensityKgM3 <= 0 {
		return skip(result, "Cannot determine material density")
	}

	massKg := round2(*el.VolumeM3 * res.DensityKgM3)
	co2Kg := massKg * res.CO2PerKg

	if rebar, ok := reinforcement(el.Material.Category, el.ElementType, massKg, steelCO2PerKg, db); ok {
		co2Kg += rebar.co2Kg
		result.Warnings = append(result.Warnings, rebar.warning)
	}

	co2Kg = round2(co2Kg)
	factor := res.CO2PerKg

	result.MassKg = &massKg
	result.CO2Kg = &co2Kg
	result.CO2FactorUsed = &factor
	result.DataSource = res.Source
	result.CalculationMethod = CalculationVolumeBased
	return result
}

// skip finalizes a result as skipped with the given warning.
func skip(result ElementResult, warning string) ElementResult {
	result.CalculationMethod = CalculationSkipped
	result.Warnings = append(result.Warnings, warning)
	return result
}

// round2 rounds to 2 decimal places, the resolution used for all mass
// and CO2 figures in the report.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds to 1 decimal place, used for percentages.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
