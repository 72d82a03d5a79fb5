// Package matdb loads the material reference database and resolves
// embodied-CO2 factors and densities for classified materials.
//
// The database is read-only reference data loaded once per run. Category
// contents are kept in file order because the last resort of the factor
// lookup is "first subcategory in the category", which must stay
// deterministic across runs.
package matdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/buildsense/carbontally/internal/logging"
)

// SupportedMajorVersion is the database schema major version this
// binary understands.
const SupportedMajorVersion = 1

// DefaultSteelCO2PerKg is used for reinforcement steel when the
// database carries no steel.steel_reinforcement entry.
const DefaultSteelCO2PerKg = 1.65

// Entry is one material record: density plus cradle-to-gate carbon
// intensity, with the data source it was taken from.
type Entry struct {
	DensityKgM3      float64 `json:"density_kg_m3"`
	EmbodiedCO2PerKg float64 `json:"embodied_co2_per_kg"`
	Source           string  `json:"source"`
}

// Category holds the subcategory entries of one material category in
// the order they appear in the database file.
type Category struct {
	keys    []string
	entries map[string]Entry
}

// UnmarshalJSON decodes a category object while preserving key order.
// encoding/json map decoding would lose it, so the object is walked
// token by token.
func (c *Category) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("material category must be a JSON object, got %v", tok)
	}

	c.entries = make(map[string]Entry)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in material category", keyTok)
		}

		var entry Entry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("decoding material entry %q: %w", key, err)
		}
		if _, dup := c.entries[key]; !dup {
			c.keys = append(c.keys, key)
		}
		c.entries[key] = entry
	}
	return nil
}

// MarshalJSON re-encodes the category in its original key order.
func (c *Category) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		entryJSON, err := json.Marshal(c.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(entryJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the entry stored under key.
func (c *Category) Get(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	entry, ok := c.entries[key]
	return entry, ok
}

// First returns the first entry in file order, for the last-resort
// fallback tier.
func (c *Category) First() (string, Entry, bool) {
	if c == nil || len(c.keys) == 0 {
		return "", Entry{}, false
	}
	key := c.keys[0]
	return key, c.entries[key], true
}

// Keys returns the subcategory keys in file order.
func (c *Category) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Len returns the number of entries in the category.
func (c *Category) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Database is the material reference database: category → subcategory →
// entry, plus reinforcement ratios keyed by structural element type.
type Database struct {
	Version             string               `json:"version"`
	Source              string               `json:"source"`
	Materials           map[string]*Category `json:"materials"`
	ReinforcementRatios map[string]float64   `json:"reinforcement_ratios"`
}

// Load reads and parses the database file at path. File and parse
// failures are fatal to the run and identify the offending file.
func Load(ctx context.Context, path string) (*Database, error) {
	log := logging.ComponentLogger(logging.FromContext(ctx), "matdb")
	log.Debug().Str("database_path", path).Msg("loading material database")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading material database %s: %w", path, err)
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("parsing material database %s: %w", path, err)
	}

	log.Debug().
		Str("database_version", db.Version).
		Int("categories", len(db.Materials)).
		Int("reinforcement_ratios", len(db.ReinforcementRatios)).
		Msg("material database loaded")
	return &db, nil
}

// CheckVersion validates that the database schema version is one this
// binary supports. The version must parse as semver with major version
// SupportedMajorVersion.
func (db *Database) CheckVersion() error {
	if db.Version == "" {
		return fmt.Errorf("material database has no version")
	}
	v, err := semver.NewVersion(db.Version)
	if err != nil {
		return fmt.Errorf("material database version %q is not a valid semver: %w", db.Version, err)
	}
	if v.Major() != SupportedMajorVersion {
		return fmt.Errorf("material database version %s is not supported (need %d.x)",
			db.Version, SupportedMajorVersion)
	}
	return nil
}

// SteelFactor returns the embodied CO2 per kg of reinforcement steel.
// It reads the steel.steel_reinforcement entry when present and falls
// back to DefaultSteelCO2PerKg otherwise.
func (db *Database) SteelFactor() float64 {
	if entry, ok := db.Materials["steel"].Get("steel_reinforcement"); ok {
		return entry.EmbodiedCO2PerKg
	}
	return DefaultSteelCO2PerKg
}

// RatioFor returns the explicit reinforcement ratio percentage stored
// under key, if any.
func (db *Database) RatioFor(key string) (float64, bool) {
	ratio, ok := db.ReinforcementRatios[key]
	return ratio, ok
}
