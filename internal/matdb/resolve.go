package matdb

import "fmt"

// Resolution holds the factors chosen for a (category, subcategory)
// pair. Warnings document any fallback that was taken; they are
// informational and carried onto the element result even when the
// calculation ultimately succeeds.
type Resolution struct {
	CO2PerKg    float64
	DensityKgM3 float64
	Source      string
	Warnings    []string
}

// Resolve finds the CO2 factor and density for a material using a
// strict fallback chain:
//
//  1. exact subcategory match (no warning)
//  2. the category's "<category>_generic" entry
//  3. the first subcategory in the category, in file order
//  4. not found
//
// Both factor and density come from the single resolved entry, so one
// lookup serves both. The returned bool is false only for tier 4; the
// Warnings slice then explains why.
func (db *Database) Resolve(category, subcategory string) (Resolution, bool) {
	cat, ok := db.Materials[category]
	if !ok {
		return Resolution{
			Warnings: []string{fmt.Sprintf("Material category '%s' not found in database", category)},
		}, false
	}

	if entry, ok := cat.Get(subcategory); ok && subcategory != "" {
		return resolution(entry, nil), true
	}

	genericKey := category + "_generic"
	if entry, ok := cat.Get(genericKey); ok {
		warning := fmt.Sprintf("Used %s as fallback for %s", genericKey, subcategory)
		return resolution(entry, []string{warning}), true
	}

	if firstKey, entry, ok := cat.First(); ok {
		warning := fmt.Sprintf("Used %s as fallback for %s", firstKey, subcategory)
		return resolution(entry, []string{warning}), true
	}

	return Resolution{
		Warnings: []string{fmt.Sprintf(
			"Material '%s' not found in database category '%s'", subcategory, category)},
	}, false
}

func resolution(entry Entry, warnings []string) Resolution {
	return Resolution{
		CO2PerKg:    entry.EmbodiedCO2PerKg,
		DensityKgM3: entry.DensityKgM3,
		Source:      entry.Source,
		Warnings:    warnings,
	}
}
