package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestResolve_StripsDateSuffix(t *testing.T) {
	r := DefaultResolver()

	p := r.Resolve("claude-opus-4-5-20251101")
	if p.ModelID != "claude-opus-4-5" {
		t.Fatalf("ModelID = %q, want claude-opus-4-5", p.ModelID)
	}
	if p.InputPerMTok != 5.0 {
		t.Fatalf("InputPerMTok = %.2f, want 5.0", p.InputPerMTok)
	}
}

func TestResolve_UnknownModelFallsBack(t *testing.T) {
	r := DefaultResolver()

	p := r.Resolve("gpt-9-turbo")
	if p.ModelID != "gpt-9-turbo" || p.DisplayName != "gpt-9-turbo" {
		t.Fatalf("fallback = %+v, want id and name gpt-9-turbo", p)
	}
	if p.InputPerMTok != 0 || p.OutputPerMTok != 0 || p.CachedPerMTok != 0 {
		t.Fatalf("fallback rates = %+v, want all zero", p)
	}
}

func TestResolve_EmptyModelIsUnknown(t *testing.T) {
	p := DefaultResolver().Resolve("")
	if p.ModelID != model.UnknownModelID || p.DisplayName != model.UnknownModelID {
		t.Fatalf("empty model resolved to %+v, want unknown", p)
	}
}

func TestNewResolver_CopiesTable(t *testing.T) {
	table := map[string]model.ModelPricing{
		"m1": {InputPerMTok: 3},
	}
	r := NewResolver(table)
	table["m1"] = model.ModelPricing{InputPerMTok: 99}

	p := r.Resolve("m1")
	if p.InputPerMTok != 3 {
		t.Fatalf("InputPerMTok = %.2f after caller mutation, want 3", p.InputPerMTok)
	}
	if p.ModelID != "m1" || p.DisplayName != "m1" {
		t.Fatalf("missing metadata not filled from key: %+v", p)
	}
}

func TestPricingTable_FileThenOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	yml := `models:
  - model_id: m1
    display_name: Model One
    input_per_mtok: 3
    output_per_mtok: 15
  - model_id: claude-haiku-4-5
    input_per_mtok: 2
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	out := 20.0
	cfg := DefaultConfig()
	cfg.Pricing.File = path
	cfg.Pricing.Overrides = map[string]ModelPricingOverride{
		"m1": {OutputPerMTok: &out},
	}

	table, err := cfg.PricingTable()
	if err != nil {
		t.Fatalf("PricingTable: %v", err)
	}

	m1 := table["m1"]
	if m1.DisplayName != "Model One" || m1.InputPerMTok != 3 || m1.OutputPerMTok != 20 {
		t.Fatalf("m1 = %+v, want Model One 3/20", m1)
	}
	if got := table["claude-haiku-4-5"].InputPerMTok; got != 2 {
		t.Fatalf("file entry did not replace default: input = %.2f, want 2", got)
	}
	if _, ok := table["claude-opus-4-6"]; !ok {
		t.Fatal("built-in entries dropped from merged table")
	}
	if DefaultPricing["claude-haiku-4-5"].InputPerMTok != 1.0 {
		t.Fatal("PricingTable mutated DefaultPricing")
	}
}

func TestLoadPricingFile_RejectsNegativeRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("models:\n  - model_id: bad\n    input_per_mtok: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPricingFile(path); err == nil {
		t.Fatal("expected error for negative rate")
	}
}
