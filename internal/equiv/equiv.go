// Package equiv converts embodied-carbon totals into relatable
// real-world equivalencies for the console summary, using
// EPA-published conversion factors.
package equiv

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Conversion factors. To calculate an equivalency, divide the kg CO2e
// value by the factor.
const (
	// KgCO2PerCarKm is kg CO2e per kilometre driven in an average
	// passenger vehicle (EPA GHG Equivalencies Calculator, converted
	// from the per-mile figure).
	KgCO2PerCarKm = 0.119

	// KgCO2PerTreeSeedling is kg CO2e absorbed by one tree seedling
	// grown for 10 years.
	KgCO2PerTreeSeedling = 60.0
)

// MinThresholdKg is the total below which no equivalency is shown;
// the numbers become meaninglessly small.
const MinThresholdKg = 1.0

// Number-scaling thresholds for abbreviated display.
const (
	millionThreshold = 1_000_000
	billionThreshold = 1_000_000_000
)

// printer formats numbers with English thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// constError is an immutable sentinel error type.
type constError string

func (e constError) Error() string { return string(e) }

// ErrNegativeValue indicates a negative carbon total, which has no
// physical meaning here.
const ErrNegativeValue = constError("negative carbon value")

// Result is one computed equivalency.
type Result struct {
	Value          float64
	FormattedValue string
	Label          string
}

// ForTotal computes the equivalencies for a report's total CO2. It
// returns ok=false when the total is below MinThresholdKg.
func ForTotal(totalKg float64) ([]Result, bool, error) {
	if math.IsInf(totalKg, 0) || math.IsNaN(totalKg) {
		return nil, false, ErrNegativeValue
	}
	if totalKg < 0 {
		return nil, false, ErrNegativeValue
	}
	if totalKg < MinThresholdKg {
		return nil, false, nil
	}

	carKm := totalKg / KgCO2PerCarKm
	seedlings := totalKg / KgCO2PerTreeSeedling

	return []Result{
		{Value: carKm, FormattedValue: formatValue(carKm), Label: "km driven"},
		{Value: seedlings, FormattedValue: formatValue(seedlings), Label: "tree seedlings grown for 10 years"},
	}, true, nil
}

// Line renders the console equivalency sentence for a report total, or
// ok=false when nothing should be printed.
func Line(totalKg float64) (string, bool) {
	results, ok, err := ForTotal(totalKg)
	if err != nil || !ok {
		return "", false
	}
	return fmt.Sprintf("Equivalent to driving ~%s km or growing ~%s tree seedlings for 10 years",
		results[0].FormattedValue, results[1].FormattedValue), true
}

// formatValue formats an equivalency value for display: abbreviated for
// million-scale values, comma-separated integers otherwise.
func formatValue(v float64) string {
	if v >= billionThreshold {
		return fmt.Sprintf("%.1f billion", v/billionThreshold)
	}
	if v >= millionThreshold {
		return fmt.Sprintf("%.1f million", v/millionThreshold)
	}
	return FormatNumber(int64(math.Round(v)))
}

// FormatNumber formats an integer with thousand separators.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats a float with thousand separators and the given
// precision.
func FormatFloat(f float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return printer.Sprintf(format, f)
}
