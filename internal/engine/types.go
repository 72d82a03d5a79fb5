// Package engine computes the embodied-carbon report for a classified
// building-element inventory.
//
// Calculate is a pure function of (elements, database): it never mutates
// its inputs and holds no state between runs, so callers may invoke it
// repeatedly or concurrently on independent element sets.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CalculationVolumeBased marks results computed from volume × density.
const CalculationVolumeBased = "volume_based"

// CalculationSkipped marks elements whose data gaps made a CO2 value
// impossible; the warning on the result says why.
const CalculationSkipped = "skipped"

// Material is the normalized dominant-material classification of an
// element. Ingestion collapses the upstream classifier's loose shapes
// into this form before the engine sees them.
type Material struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Element is one physical building component as classified upstream.
// Elements are immutable inputs; the engine only derives result records
// from them.
type Element struct {
	GlobalID    string   `json:"global_id"`
	Name        string   `json:"name"`
	ElementType string   `json:"element_type"`
	Material    Material `json:"material_primary"`
	// VolumeM3 is nil when the source geometry was incomplete.
	VolumeM3   *float64 `json:"volume_m3"`
	Confidence float64  `json:"confidence"`
}

// ElementResult is the engine's per-element output. Each input element
// produces exactly one result, routed to either the calculated or the
// skipped partition of the report. Numeric fields stay nil on skipped
// results.
type ElementResult struct {
	GlobalID          string   `json:"global_id"`
	ElementName       string   `json:"element_name"`
	ElementType       string   `json:"element_type"`
	MaterialCategory  string   `json:"material_category"`
	VolumeM3          *float64 `json:"volume_m3"`
	MassKg            *float64 `json:"mass_kg"`
	CO2Kg             *float64 `json:"co2_kg"`
	CO2FactorUsed     *float64 `json:"co2_factor_used"`
	DataSource        string   `json:"data_source"`
	CalculationMethod string   `json:"calculation_method"`
	Confidence        float64  `json:"confidence"`
	Warnings          []string `json:"warnings"`
}

// Skipped reports whether the element was routed to the skipped set.
func (r *ElementResult) Skipped() bool {
	return r.CalculationMethod == CalculationSkipped
}

// CategoryTotal accumulates per-category impact across calculated
// results only.
type CategoryTotal struct {
	Count  int     `json:"count"`
	CO2Kg  float64 `json:"co2_kg"`
	MassKg float64 `json:"mass_kg"`
	// Percentage is the category's share of total CO2, computed once
	// all elements are processed.
	Percentage float64 `json:"percentage"`
}

// CategoryBreakdown is the by_category section of the report. It
// serializes as a JSON object whose keys iterate in descending CO2
// order; that ordering is part of the report contract, so a plain map
// cannot carry it.
type CategoryBreakdown struct {
	names  []string
	totals map[string]CategoryTotal
}

// Names returns category names in descending CO2 order.
func (b *CategoryBreakdown) Names() []string {
	names := make([]string, len(b.names))
	copy(names, b.names)
	return names
}

// Get returns the totals recorded for a category.
func (b *CategoryBreakdown) Get(name string) (CategoryTotal, bool) {
	total, ok := b.totals[name]
	return total, ok
}

// Len returns the number of categories in the breakdown.
func (b *CategoryBreakdown) Len() int {
	return len(b.names)
}

// MarshalJSON writes the breakdown as a JSON object in stored order.
func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range b.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameJSON, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')
		totalJSON, err := json.Marshal(b.totals[name])
		if err != nil {
			return nil, err
		}
		buf.Write(totalJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a by_category object back, preserving the order
// written by MarshalJSON so re-rendered summaries keep the contract
// ordering.
func (b *CategoryBreakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("by_category must be a JSON object, got %v", tok)
	}

	b.names = nil
	b.totals = make(map[string]CategoryTotal)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in by_category", keyTok)
		}

		var total CategoryTotal
		if err := dec.Decode(&total); err != nil {
			return fmt.Errorf("decoding category %q: %w", name, err)
		}
		if _, dup := b.totals[name]; !dup {
			b.names = append(b.names, name)
		}
		b.totals[name] = total
	}
	return nil
}

// Summary is the report header: run provenance plus the grand totals
// and completeness accounting.
type Summary struct {
	Timestamp       string  `json:"timestamp"`
	RunID           string  `json:"run_id"`
	InputFile       string  `json:"input_file"`
	DatabaseVersion string  `json:"database_version"`
	TotalElements   int     `json:"total_elements"`
	Calculated      int     `json:"calculated"`
	Skipped         int     `json:"skipped"`
	TotalCO2Kg      float64 `json:"total_co2_kg"`
	TotalMassKg     float64 `json:"total_mass_kg"`
	CompletenessPct float64 `json:"completeness_pct"`
}

// Report is the engine's final output: a snapshot value written once.
// Its JSON shape is the contract consumed by downstream renderers.
type Report struct {
	Summary         Summary           `json:"summary"`
	ByCategory      CategoryBreakdown `json:"by_category"`
	DetailedResults []ElementResult   `json:"detailed_results"`
	SkippedElements []ElementResult   `json:"skipped_elements"`
}
