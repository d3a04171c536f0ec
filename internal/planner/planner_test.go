package planner_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/yardstick/internal/models"
	"github.com/spachava753/yardstick/internal/planner"
)

func testConfig() models.ExperimentConfig {
	return models.ExperimentConfig{
		Description: "prompt x model",
		Variations: []models.WrapperConfig{
			{
				Name: "prompt",
				Variations: []models.WrapperVariation{
					models.MustWrapperVariation("str", "Answer briefly: {q}", "short"),
					models.MustWrapperVariation("str", "Think step by step: {q}", "cot"),
				},
			},
			{
				Name: "temperature",
				Variations: []models.WrapperVariation{
					models.MustWrapperVariation("float", "0.0", "cold"),
					models.MustWrapperVariation("float", "0.7", "warm"),
					models.MustWrapperVariation("float", "1.2", ""),
				},
			},
		},
	}
}

func TestPlanAllCombinations(t *testing.T) {
	cfg := testConfig()

	combos, err := planner.Plan(&cfg)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	want := []planner.Combination{
		{"prompt": "short", "temperature": "cold"},
		{"prompt": "short", "temperature": "warm"},
		{"prompt": "short", "temperature": "2"},
		{"prompt": "cot", "temperature": "cold"},
		{"prompt": "cot", "temperature": "warm"},
		{"prompt": "cot", "temperature": "2"},
	}
	if diff := cmp.Diff(want, combos); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanRestricted(t *testing.T) {
	cfg := testConfig()
	cfg.CombinationsToRun = []models.CombinationEntry{
		{Group: "temperature", Variation: "warm"},
		{Group: "temperature", Variation: "cold"},
		{Group: "temperature", Variation: "warm"},
	}

	combos, err := planner.Plan(&cfg)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	want := []planner.Combination{
		{"prompt": "short", "temperature": "warm"},
		{"prompt": "short", "temperature": "cold"},
		{"prompt": "cot", "temperature": "warm"},
		{"prompt": "cot", "temperature": "cold"},
	}
	if diff := cmp.Diff(want, combos); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ExperimentConfig)
		want   models.ErrorType
	}{
		{
			name:   "no wrappers",
			mutate: func(c *models.ExperimentConfig) { c.Variations = nil },
			want:   models.ErrNoVariations,
		},
		{
			name: "unknown wrapper",
			mutate: func(c *models.ExperimentConfig) {
				c.CombinationsToRun = []models.CombinationEntry{{Group: "model", Variation: "large"}}
			},
			want: models.ErrUnknownWrapper,
		},
		{
			name: "unknown variation",
			mutate: func(c *models.ExperimentConfig) {
				c.CombinationsToRun = []models.CombinationEntry{{Group: "prompt", Variation: "long"}}
			},
			want: models.ErrUnknownVariation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := planner.Plan(&cfg)
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *models.ValidationError, got %v", err)
			}
			if !verr.Has(tt.want) {
				t.Errorf("expected issue %s, got %v", tt.want, verr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cfg := testConfig()

	active, err := planner.Resolve(&cfg, planner.Combination{"prompt": "cot", "temperature": "2"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if active["prompt"].InstantiatedValue() != "Think step by step: {q}" {
		t.Errorf("prompt = %v", active["prompt"].InstantiatedValue())
	}
	if active["temperature"].InstantiatedValue() != 1.2 {
		t.Errorf("temperature = %v", active["temperature"].InstantiatedValue())
	}

	bad := []planner.Combination{
		{"prompt": "cot"},
		{"prompt": "cot", "temperature": "hot"},
		{"prompt": "cot", "temperature": "warm", "model": "large"},
	}
	for _, combo := range bad {
		if _, err := planner.Resolve(&cfg, combo); err == nil {
			t.Errorf("Resolve(%s) expected error", combo.Key())
		}
	}
}

func TestCombinationKey(t *testing.T) {
	c := planner.Combination{"temperature": "warm", "model": "small", "prompt": "cot"}
	if got := c.Key(); got != "model=small,prompt=cot,temperature=warm" {
		t.Errorf("Key() = %q", got)
	}
}
