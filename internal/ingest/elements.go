// Package ingest loads classified-element files and normalizes them
// into the engine's input shape.
//
// Upstream classifiers are inconsistent about the material_primary
// field: it may be a {category, subcategory} object, a bare string
// ("concrete" or "concrete/C30_40"), or absent. That ambiguity is
// resolved here, at the boundary, so the engine only ever sees the
// fixed Material shape.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/buildsense/carbontally/internal/engine"
	"github.com/buildsense/carbontally/internal/logging"
)

// elementsFile is the top-level shape of a classified-elements file.
// Elements is a pointer so a file without the key can be told apart
// from one with an empty array.
type elementsFile struct {
	Elements *[]rawElement `json:"elements"`
}

// rawElement defers material_primary decoding so the loose upstream
// shapes can be normalized.
type rawElement struct {
	GlobalID        string          `json:"global_id"`
	Name            string          `json:"name"`
	ElementType     string          `json:"element_type"`
	MaterialPrimary json.RawMessage `json:"material_primary"`
	VolumeM3        *float64        `json:"volume_m3"`
	Confidence      float64         `json:"confidence"`
}

// LoadElements reads and normalizes a classified-elements JSON file.
// Structural problems (unreadable file, malformed JSON, missing
// "elements" key) are fatal and identify the offending file.
func LoadElements(ctx context.Context, path string) ([]engine.Element, error) {
	log := logging.ComponentLogger(logging.FromContext(ctx), "ingest")
	log.Debug().Str("elements_path", path).Msg("loading classified elements")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading elements file %s: %w", path, err)
	}

	return ParseElements(ctx, data, path)
}

// ParseElements normalizes classified-elements JSON from bytes. The
// name is used only for error messages.
func ParseElements(ctx context.Context, data []byte, name string) ([]engine.Element, error) {
	log := logging.ComponentLogger(logging.FromContext(ctx), "ingest")

	var file elementsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing elements file %s: %w", name, err)
	}
	if file.Elements == nil {
		return nil, fmt.Errorf("elements file %s has no 'elements' key", name)
	}

	elements := make([]engine.Element, 0, len(*file.Elements))
	for i, raw := range *file.Elements {
		material, err := normalizeMaterial(raw.MaterialPrimary)
		if err != nil {
			return nil, fmt.Errorf("elements file %s: element %d (%s): %w", name, i, raw.GlobalID, err)
		}
		elements = append(elements, engine.Element{
			GlobalID:    raw.GlobalID,
			Name:        raw.Name,
			ElementType: raw.ElementType,
			Material:    material,
			VolumeM3:    raw.VolumeM3,
			Confidence:  clampConfidence(raw.Confidence),
		})
	}

	log.Debug().Int("elements", len(elements)).Msg("elements loaded")
	return elements, nil
}

// normalizeMaterial collapses the upstream material_primary variants
// into the fixed {category, subcategory} shape.
func normalizeMaterial(raw json.RawMessage) (engine.Material, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return engine.Material{}, nil
	}

	var obj struct {
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return engine.Material{Category: obj.Category, Subcategory: obj.Subcategory}, nil
	}

	// Legacy classifier output: a bare "category" or "category/subcategory" string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		category, subcategory, _ := strings.Cut(s, "/")
		return engine.Material{
			Category:    strings.TrimSpace(category),
			Subcategory: strings.TrimSpace(subcategory),
		}, nil
	}

	return engine.Material{}, fmt.Errorf("material_primary is neither an object nor a string: %s", raw)
}

// clampConfidence bounds upstream confidence to [0, 1]. Values outside
// the range come from classifier bugs and are clamped rather than
// rejected; the value is audit metadata, not an input to the math.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
