// Package planner expands an experiment config into the concrete
// combinations of variations to run.
package planner

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spachava753/yardstick/internal/config"
	"github.com/spachava753/yardstick/internal/models"
)

// Combination assigns a variation key to every wrapper.
type Combination map[string]string

// Key returns a stable identifier of the form "a=x,b=y" with wrapper names
// sorted.
func (c Combination) Key() string {
	names := slices.Sorted(maps.Keys(c))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + c[name]
	}
	return strings.Join(parts, ",")
}

// Plan validates cfg and returns the combinations to run: the Cartesian
// product of every wrapper's variations in declaration order. Wrappers named
// in combinations_to_run are restricted to the listed variations.
func Plan(cfg *models.ExperimentConfig) ([]Combination, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	selected := make(map[string][]string)
	for _, entry := range cfg.CombinationsToRun {
		if !slices.Contains(selected[entry.Group], entry.Variation) {
			selected[entry.Group] = append(selected[entry.Group], entry.Variation)
		}
	}

	combos := []Combination{{}}
	for _, wc := range cfg.Variations {
		keys, restricted := selected[wc.Name]
		if !restricted {
			keys = wc.VariationKeys()
		}

		next := make([]Combination, 0, len(combos)*len(keys))
		for _, combo := range combos {
			for _, key := range keys {
				c := make(Combination, len(combo)+1)
				maps.Copy(c, combo)
				c[wc.Name] = key
				next = append(next, c)
			}
		}
		combos = next
	}

	slog.Debug("planned experiment combinations",
		"wrappers", len(cfg.Variations),
		"restricted_wrappers", len(selected),
		"combinations", len(combos))

	return combos, nil
}

// Resolve returns the active variation of every wrapper in combo.
func Resolve(cfg *models.ExperimentConfig, combo Combination) (map[string]models.WrapperVariation, error) {
	active := make(map[string]models.WrapperVariation, len(combo))
	for _, wc := range cfg.Variations {
		key, ok := combo[wc.Name]
		if !ok {
			return nil, fmt.Errorf("combination %s: no variation chosen for wrapper %q", combo.Key(), wc.Name)
		}
		v, ok := wc.Variation(key)
		if !ok {
			return nil, fmt.Errorf("combination %s: wrapper %q has no variation %q", combo.Key(), wc.Name, key)
		}
		active[wc.Name] = v
	}
	if len(active) != len(combo) {
		return nil, fmt.Errorf("combination %s: references wrappers that are not configured", combo.Key())
	}
	return active, nil
}
