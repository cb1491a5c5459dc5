package config

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/costdeck/internal/model"
)

// DefaultPricing maps model base names to their pricing and display metadata.
var DefaultPricing = map[string]model.ModelPricing{
	"claude-opus-4-6": {
		ModelID: "claude-opus-4-6", DisplayName: "Claude Opus 4.6", RecommendedTag: "most capable",
		InputPerMTok: 5.00, OutputPerMTok: 25.00, CachedPerMTok: 0.50,
	},
	"claude-opus-4-5": {
		ModelID: "claude-opus-4-5", DisplayName: "Claude Opus 4.5",
		InputPerMTok: 5.00, OutputPerMTok: 25.00, CachedPerMTok: 0.50,
	},
	"claude-opus-4-1": {
		ModelID: "claude-opus-4-1", DisplayName: "Claude Opus 4.1",
		InputPerMTok: 15.00, OutputPerMTok: 75.00, CachedPerMTok: 1.50,
	},
	"claude-opus-4": {
		ModelID: "claude-opus-4", DisplayName: "Claude Opus 4",
		InputPerMTok: 15.00, OutputPerMTok: 75.00, CachedPerMTok: 1.50,
	},
	"claude-sonnet-4-6": {
		ModelID: "claude-sonnet-4-6", DisplayName: "Claude Sonnet 4.6", RecommendedTag: "recommended",
		InputPerMTok: 3.00, OutputPerMTok: 15.00, CachedPerMTok: 0.30,
	},
	"claude-sonnet-4-5": {
		ModelID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5",
		InputPerMTok: 3.00, OutputPerMTok: 15.00, CachedPerMTok: 0.30,
	},
	"claude-sonnet-4": {
		ModelID: "claude-sonnet-4", DisplayName: "Claude Sonnet 4",
		InputPerMTok: 3.00, OutputPerMTok: 15.00, CachedPerMTok: 0.30,
	},
	"claude-haiku-4-5": {
		ModelID: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5", RecommendedTag: "fastest",
		InputPerMTok: 1.00, OutputPerMTok: 5.00, CachedPerMTok: 0.10,
	},
	"claude-haiku-3-5": {
		ModelID: "claude-haiku-3-5", DisplayName: "Claude Haiku 3.5",
		InputPerMTok: 0.80, OutputPerMTok: 4.00, CachedPerMTok: 0.08,
	},
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	File      string                          `toml:"file,omitempty"`
	Overrides map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model pricing overrides. Nil fields keep the
// built-in value.
type ModelPricingOverride struct {
	DisplayName   string   `toml:"display_name,omitempty"`
	InputPerMTok  *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok *float64 `toml:"output_per_mtok,omitempty"`
	CachedPerMTok *float64 `toml:"cached_per_mtok,omitempty"`
}

// pricingFile is the YAML shape of an external pricing table.
type pricingFile struct {
	Models []model.ModelPricing `yaml:"models"`
}

// LoadPricingFile parses a YAML pricing table.
func LoadPricingFile(path string) (map[string]model.ModelPricing, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("reading pricing file: %w", err)
	}

	var pf pricingFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing pricing file: %w", err)
	}

	table := make(map[string]model.ModelPricing, len(pf.Models))
	for i, p := range pf.Models {
		if p.ModelID == "" {
			return nil, fmt.Errorf("pricing file entry %d: missing model_id", i)
		}
		if p.InputPerMTok < 0 || p.OutputPerMTok < 0 || p.CachedPerMTok < 0 {
			return nil, fmt.Errorf("pricing file entry %q: negative rate", p.ModelID)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.ModelID
		}
		table[p.ModelID] = p
	}
	return table, nil
}

// PricingTable builds the effective pricing table: built-in defaults, then the
// optional YAML file, then per-model TOML overrides.
func (c Config) PricingTable() (map[string]model.ModelPricing, error) {
	table := maps.Clone(DefaultPricing)

	if c.Pricing.File != "" {
		fromFile, err := LoadPricingFile(c.Pricing.File)
		if err != nil {
			return nil, err
		}
		maps.Copy(table, fromFile)
	}

	for id, o := range c.Pricing.Overrides {
		p, ok := table[id]
		if !ok {
			p = model.ModelPricing{ModelID: id, DisplayName: id}
		}
		if o.DisplayName != "" {
			p.DisplayName = o.DisplayName
		}
		if o.InputPerMTok != nil {
			p.InputPerMTok = *o.InputPerMTok
		}
		if o.OutputPerMTok != nil {
			p.OutputPerMTok = *o.OutputPerMTok
		}
		if o.CachedPerMTok != nil {
			p.CachedPerMTok = *o.CachedPerMTok
		}
		table[id] = p
	}

	return table, nil
}

// Resolver looks up model pricing in a fixed table. It is safe for concurrent
// use; rebuild it to pick up a new table.
type Resolver struct {
	table map[string]model.ModelPricing
}

// NewResolver returns a Resolver over a private copy of table.
func NewResolver(table map[string]model.ModelPricing) *Resolver {
	t := make(map[string]model.ModelPricing, len(table))
	for id, p := range table {
		if p.ModelID == "" {
			p.ModelID = id
		}
		if p.DisplayName == "" {
			p.DisplayName = id
		}
		t[id] = p
	}
	return &Resolver{table: t}
}

// DefaultResolver returns a Resolver over the built-in pricing table.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultPricing)
}

// Resolve returns the pricing for modelID. Unknown ids resolve to a zero-cost
// record named after the raw id; an empty id resolves to "unknown".
func (r *Resolver) Resolve(modelID string) model.ModelPricing {
	if modelID == "" {
		return model.ModelPricing{ModelID: model.UnknownModelID, DisplayName: model.UnknownModelID}
	}
	if p, ok := r.table[r.Normalize(modelID)]; ok {
		return p
	}
	return model.ModelPricing{ModelID: modelID, DisplayName: modelID}
}

// Normalize strips a date suffix from a model identifier when the shorter
// name is in the table, e.g. "claude-opus-4-5-20251101" -> "claude-opus-4-5".
func (r *Resolver) Normalize(raw string) string {
	if _, ok := r.table[raw]; ok {
		return raw
	}

	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if _, ok := r.table[candidate]; ok {
				return candidate
			}
		}
	}

	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
