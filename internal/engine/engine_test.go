package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsense/carbontally/internal/matdb"
)

const testDatabaseJSON = `{
  "version": "1.2.0",
  "source": "NIBE (Dutch national database)",
  "materials": {
    "concrete": {
      "C30_40": {"density_kg_m3": 2400, "embodied_co2_per_kg": 0.12, "source": "NIBE-C30"},
      "concrete_generic": {"density_kg_m3": 2350, "embodied_co2_per_kg": 0.15, "source": "NIBE-generic"},
      "lightweight": {"density_kg_m3": 2000, "embodied_co2_per_kg": 0.1, "source": "NIBE-LW"}
    },
    "brick": {
      "brick_standard": {"density_kg_m3": 1800, "embodied_co2_per_kg": 0.24, "source": "NIBE-brick"}
    },
    "steel": {
      "steel_reinforcement": {"density_kg_m3": 7850, "embodied_co2_per_kg": 1.65, "source": "NIBE-steel"}
    },
    "insulation": {
      "insulation_generic": {"density_kg_m3": 0, "embodied_co2_per_kg": 1.2, "source": "NIBE-ins"}
    },
    "recycled_fill": {
      "fill_generic": {"density_kg_m3": 1600, "embodied_co2_per_kg": 0, "source": "NIBE-fill"}
    },
    "timber": {}
  },
  "reinforcement_ratios": {
    "column": 2.5,
    "beam": 2.8,
    "structural_slab": 2.0,
    "footing": 1.5,
    "foundation_wall": 1.8,
    "structural_wall": 2.2
  }
}`

func testDatabase(t *testing.T) *matdb.Database {
	t.Helper()
	var db matdb.Database
	require.NoError(t, json.Unmarshal([]byte(testDatabaseJSON), &db))
	return &db
}

func testMeta() Meta {
	return Meta{
		InputFile: "batch_1.json",
		RunID:     "01TESTRUN0000000000000000",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func vol(v float64) *float64 { return &v }

func TestCalculateSkipsElementWithoutVolume(t *testing.T) {
	db := testDatabase(t)

	tests := []struct {
		name   string
		volume *float64
	}{
		{name: "null volume", volume: nil},
		{name: "zero volume", volume: vol(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Calculate(context.Background(), []Element{{
				GlobalID:    "GID-1",
				Name:        "Mystery Wall",
				ElementType: "wall",
				Material:    Material{Category: "concrete"},
				VolumeM3:    tt.volume,
				Confidence:  0.8,
			}}, db, testMeta())

			require.Empty(t, report.DetailedResults)
			require.Len(t, report.SkippedElements, 1)

			skipped := report.SkippedElements[0]
			assert.Equal(t, CalculationSkipped, skipped.CalculationMethod)
			assert.Equal(t, []string{"No volume data - cannot calculate CO2"}, skipped.Warnings)
			assert.Nil(t, skipped.MassKg)
			assert.Nil(t, skipped.CO2Kg)
			assert.Nil(t, skipped.CO2FactorUsed)
		})
	}
}

func TestCalculateSkipsElementWithoutMaterialCategory(t *testing.T) {
	db := testDatabase(t)

	report := Calculate(context.Background(), []Element{{
		GlobalID: "GID-1",
		VolumeM3: vol(1.0),
	}}, db, testMeta())

	require.Len(t, report.SkippedElements, 1)
	assert.Equal(t, []string{"No material category - cannot calculate CO2"},
		report.SkippedElements[0].Warnings)
}

func TestCalculateSkipsUnresolvableMaterial(t *testing.T) {
	db := testDatabase(t)

	tests := []struct {
		name        string
		material    Material
		wantWarning string
	}{
		{
			name:        "category absent from database",
			material:    Material{Category: "glass", Subcategory: "float"},
			wantWarning: "Material category 'glass' not found in database",
		},
		{
			name:        "category present but empty",
			material:    Material{Category: "timber", Subcategory: "glulam"},
			wantWarning: "Material 'glulam' not found in database category 'timber'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Calculate(context.Background(), []Element{{
				GlobalID: "GID-1",
				Material: tt.material,
				VolumeM3: vol(1.0),
			}}, db, testMeta())

			require.Len(t, report.SkippedElements, 1)
			assert.Equal(t, []string{tt.wantWarning}, report.SkippedElements[0].Warnings)
		})
	}
}

func TestCalculateSkipsWhenDensityUnavailable(t *testing.T) {
	db := testDatabase(t)

	report := Calculate(context.Background(), []Element{{
		GlobalID: "GID-1",
		Material: Material{Category: "insulation"},
		VolumeM3: vol(3.0),
	}}, db, testMeta())

	require.Len(t, report.SkippedElements, 1)
	skipped := report.SkippedElements[0]
	assert.Equal(t, CalculationSkipped, skipped.CalculationMethod)
	assert.Contains(t, skipped.Warnings, "Cannot determine material density")
	assert.Nil(t, skipped.MassKg)
}

func TestCalculateVolumeBasedArithmetic(t *testing.T) {
	db := testDatabase(t)

	// 10 m3 of C30_40 at 2400 kg/m3 and 0.12 kg CO2/kg, no reinforcement
	// ("cladding_panel" matches no structural bucket).
	report := Calculate(context.Background(), []Element{{
		GlobalID:    "GID-1",
		Name:        "Facade Panel",
		ElementType: "cladding_panel",
		Material:    Material{Category: "concrete", Subcategory: "C30_40"},
		VolumeM3:    vol(10.0),
		Confidence:  0.914,
	}}, db, testMeta())

	require.Len(t, report.DetailedResults, 1)
	result := report.DetailedResults[0]

	assert.Equal(t, CalculationVolumeBased, result.CalculationMethod)
	require.NotNil(t, result.MassKg)
	assert.InDelta(t, 24000.0, *result.MassKg, 1e-9)
	require.NotNil(t, result.CO2Kg)
	assert.InDelta(t, 2880.0, *result.CO2Kg, 1e-9)
	require.NotNil(t, result.CO2FactorUsed)
	assert.InDelta(t, 0.12, *result.CO2FactorUsed, 1e-9)
	assert.Equal(t, "NIBE-C30", result.DataSource)
	assert.Equal(t, "concrete", result.MaterialCategory)
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestCalculateAddsColumnReinforcement(t *testing.T) {
	db := testDatabase(t)

	// 0.5 m3 of lightweight concrete at 2000 kg/m3 is 1000 kg of
	// concrete; the column bucket adds 2.5% steel at 1.65 kg CO2/kg.
	report := Calculate(context.Background(), []Element{{
		GlobalID:    "GID-1",
		Name:        "Ground Floor Column",
		ElementType: "reinforced_column",
		Material:    Material{Category: "concrete", Subcategory: "lightweight"},
		VolumeM3:    vol(0.5),
	}}, db, testMeta())

	require.Len(t, report.DetailedResults, 1)
	result := report.DetailedResults[0]

	require.NotNil(t, result.MassKg)
	assert.InDelta(t, 1000.0, *result.MassKg, 1e-9)

	// base 1000 * 0.1 = 100, rebar 25 kg * 1.65 = 41.25
	require.NotNil(t, result.CO2Kg)
	assert.InDelta(t, 141.25, *result.CO2Kg, 1e-9)
	assert.Contains(t, result.Warnings, "Added 2.5% reinforcement (25.00 kg steel)")
}

func TestCalculateKeepsFallbackWarningsOnSuccess(t *testing.T) {
	db := testDatabase(t)

	report := Calculate(context.Background(), []Element{{
		GlobalID:    "GID-1",
		ElementType: "wall",
		Material:    Material{Category: "brick", Subcategory: "brick_engineering"},
		VolumeM3:    vol(2.0),
	}}, db, testMeta())

	require.Len(t, report.DetailedResults, 1)
	result := report.DetailedResults[0]
	assert.Equal(t, CalculationVolumeBased, result.CalculationMethod)
	assert.Equal(t, []string{"Used brick_standard as fallback for brick_engineering"}, result.Warnings)
	assert.Equal(t, "NIBE-brick", result.DataSource)
}

func TestCalculateInvariants(t *testing.T) {
	db := testDatabase(t)

	elements := []Element{
		{GlobalID: "A", ElementType: "column", Material: Material{Category: "concrete", Subcategory: "C30_40"}, VolumeM3: vol(2.0)},
		{GlobalID: "B", ElementType: "wall", Material: Material{Category: "brick", Subcategory: "brick_standard"}, VolumeM3: vol(5.0)},
		{GlobalID: "C", ElementType: "beam", Material: Material{Category: "concrete"}, VolumeM3: vol(0.8)},
		{GlobalID: "D", ElementType: "wall", Material: Material{Category: "glass"}, VolumeM3: vol(1.0)},
		{GlobalID: "E", ElementType: "slab", Material: Material{Category: "concrete", Subcategory: "C30_40"}},
		{GlobalID: "F", ElementType: "wall", VolumeM3: vol(3.0)},
	}

	report := Calculate(context.Background(), elements, db, testMeta())

	// Completeness: every input lands in exactly one partition.
	assert.Equal(t, len(elements),
		len(report.DetailedResults)+len(report.SkippedElements))
	assert.Equal(t, len(elements), report.Summary.TotalElements)
	assert.Equal(t, len(report.DetailedResults), report.Summary.Calculated)
	assert.Equal(t, len(report.SkippedElements), report.Summary.Skipped)

	// Conservation: summary totals equal the partition sums.
	var sumCO2, sumMass float64
	for _, r := range report.DetailedResults {
		sumCO2 += *r.CO2Kg
		sumMass += *r.MassKg
	}
	assert.InDelta(t, sumCO2, report.Summary.TotalCO2Kg, 0.01)
	assert.InDelta(t, sumMass, report.Summary.TotalMassKg, 0.01)

	// Ordering: detailed results descend by CO2.
	for i := 1; i < len(report.DetailedResults); i++ {
		assert.GreaterOrEqual(t,
			*report.DetailedResults[i-1].CO2Kg, *report.DetailedResults[i].CO2Kg)
	}

	// Percentages sum to ~100 and categories descend by CO2.
	var pctSum, prevCO2 float64
	prevCO2 = -1
	for i, name := range report.ByCategory.Names() {
		total, ok := report.ByCategory.Get(name)
		require.True(t, ok)
		pctSum += total.Percentage
		if i > 0 {
			assert.GreaterOrEqual(t, prevCO2, total.CO2Kg)
		}
		prevCO2 = total.CO2Kg
	}
	assert.InDelta(t, 100.0, pctSum, 0.2)

	// Skipped elements never contribute to category totals.
	var categoryCount int
	for _, name := range report.ByCategory.Names() {
		total, _ := report.ByCategory.Get(name)
		categoryCount += total.Count
	}
	assert.Equal(t, report.Summary.Calculated, categoryCount)

	assert.InDelta(t, 50.0, report.Summary.CompletenessPct, 1e-9)
}

func TestCalculateZeroTotalCO2Percentages(t *testing.T) {
	db := testDatabase(t)

	// recycled_fill has a zero CO2 factor, so the category total is zero.
	report := Calculate(context.Background(), []Element{{
		GlobalID:    "GID-1",
		ElementType: "fill",
		Material:    Material{Category: "recycled_fill"},
		VolumeM3:    vol(4.0),
	}}, db, testMeta())

	require.Len(t, report.DetailedResults, 1)
	assert.InDelta(t, 0.0, report.Summary.TotalCO2Kg, 1e-9)

	total, ok := report.ByCategory.Get("recycled_fill")
	require.True(t, ok)
	assert.InDelta(t, 0.0, total.Percentage, 1e-9)
}

func TestCalculateEmptyInput(t *testing.T) {
	db := testDatabase(t)

	report := Calculate(context.Background(), nil, db, testMeta())

	assert.Equal(t, 0, report.Summary.TotalElements)
	assert.InDelta(t, 0.0, report.Summary.CompletenessPct, 1e-9)
	assert.Empty(t, report.DetailedResults)
	assert.Empty(t, report.SkippedElements)
	assert.Equal(t, 0, report.ByCategory.Len())
}

// Two runs over identical inputs must produce byte-identical reports
// when the injected provenance matches.
func TestCalculateIdempotent(t *testing.T) {
	db := testDatabase(t)
	elements := []Element{
		{GlobalID: "A", ElementType: "column", Material: Material{Category: "concrete", Subcategory: "C30_40"}, VolumeM3: vol(2.0)},
		{GlobalID: "B", ElementType: "wall", Material: Material{Category: "brick"}, VolumeM3: vol(5.0)},
		{GlobalID: "C", ElementType: "beam", Material: Material{Category: "glass"}, VolumeM3: vol(1.0)},
	}
	meta := testMeta()

	first := Calculate(context.Background(), elements, db, meta)
	second := Calculate(context.Background(), elements, db, meta)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestReportJSONShape(t *testing.T) {
	db := testDatabase(t)

	report := Calculate(context.Background(), []Element{
		{GlobalID: "A", ElementType: "wall", Material: Material{Category: "brick"}, VolumeM3: vol(20.0)},
		{GlobalID: "B", ElementType: "cladding", Material: Material{Category: "concrete", Subcategory: "C30_40"}, VolumeM3: vol(1.0)},
		{GlobalID: "C", ElementType: "wall"},
	}, db, testMeta())

	data, err := json.Marshal(&report)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"summary", "by_category", "detailed_results", "skipped_elements"} {
		assert.Contains(t, decoded, key)
	}

	// by_category keys appear in descending CO2 order: brick (8640 kg)
	// before concrete (288 kg).
	byCategory := string(decoded["by_category"])
	assert.Less(t, strings.Index(byCategory, "brick"), strings.Index(byCategory, "concrete"))

	// Skipped results serialize null numerics.
	var roundTrip Report
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	require.Len(t, roundTrip.SkippedElements, 1)
	assert.Nil(t, roundTrip.SkippedElements[0].CO2Kg)
	assert.Equal(t, []string{"brick", "concrete"}, roundTrip.ByCategory.Names())
}
