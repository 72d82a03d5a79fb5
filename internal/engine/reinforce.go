package engine

import (
	"fmt"
	"strings"

	"github.com/buildsense/carbontally/internal/matdb"
)

// Default reinforcement ratios (percent of concrete mass) used when the
// database has no explicit entry for the matched bucket.
const (
	defaultColumnRatioPct         = 2.5
	defaultBeamRatioPct           = 2.8
	defaultStructuralSlabRatioPct = 2.0
	defaultFootingRatioPct        = 1.5
	defaultFoundationWallRatioPct = 1.8
	defaultStructuralWallRatioPct = 2.2
)

// rebarAddition documents reinforcing steel added to a concrete element.
type rebarAddition struct {
	co2Kg   float64
	warning string
}

// reinforcement decides whether reinforcing-steel mass should be added
// to a concrete element's CO2 and computes the addition. Only concrete
// structural elements carry reinforcement; everything else returns
// ok=false.
func reinforcement(category, elementType string, massKg, steelCO2PerKg float64, db *matdb.Database) (rebarAddition, bool) {
	if category != "concrete" {
		return rebarAddition{}, false
	}

	ratioPct := reinforcementRatioPct(elementType, db)
	if ratioPct <= 0 {
		return rebarAddition{}, false
	}

	ratio := ratioPct / 100
	rebarMassKg := massKg * ratio
	return rebarAddition{
		co2Kg: rebarMassKg * steelCO2PerKg,
		warning: fmt.Sprintf("Added %.1f%% reinforcement (%.2f kg steel)",
			ratioPct, rebarMassKg),
	}, true
}

// reinforcementRatioPct resolves the reinforcement ratio (as a
// percentage) for an element type. An explicit database key for the
// exact type wins; otherwise the type name is keyword-matched,
// case-insensitively, against the structural buckets in a fixed
// precedence order. Non-structural types resolve to 0.
func reinforcementRatioPct(elementType string, db *matdb.Database) float64 {
	if ratio, ok := db.RatioFor(elementType); ok {
		return ratio
	}

	name := strings.ToLower(elementType)
	switch {
	case strings.Contains(name, "column"):
		return bucketRatio(db, "column", defaultColumnRatioPct)
	case strings.Contains(name, "beam"):
		return bucketRatio(db, "beam", defaultBeamRatioPct)
	case strings.Contains(name, "slab"), strings.Contains(name, "structural"):
		return bucketRatio(db, "structural_slab", defaultStructuralSlabRatioPct)
	case strings.Contains(name, "footing"):
		return bucketRatio(db, "footing", defaultFootingRatioPct)
	case strings.Contains(name, "wall") && strings.Contains(name, "foundation"):
		return bucketRatio(db, "foundation_wall", defaultFoundationWallRatioPct)
	case strings.Contains(name, "wall"):
		return bucketRatio(db, "structural_wall", defaultStructuralWallRatioPct)
	default:
		return 0
	}
}

// bucketRatio prefers the database's ratio for a named bucket over the
// built-in default.
func bucketRatio(db *matdb.Database, bucket string, defaultPct float64) float64 {
	if ratio, ok := db.RatioFor(bucket); ok {
		return ratio
	}
	return defaultPct
}
