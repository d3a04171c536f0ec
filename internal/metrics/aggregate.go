// Package metrics reduces per-example evaluator outputs into experiment
// level metrics.
//
// The reduction policy is supplied by the caller through the Aggregator
// interface; this package only guarantees the shape of the result: one entry
// per evaluator that produced at least one output, rebuilt from the full
// result set on every call.
package metrics

import (
	"fmt"

	"github.com/spachava753/yardstick/internal/models"
	"github.com/spachava753/yardstick/internal/planner"
)

// Aggregator reduces all outputs of one evaluator to named metrics.
type Aggregator interface {
	Aggregate(evaluator string, outputs []models.EvaluatorOutput) (map[string]models.Metric, error)
}

// AggregatorFunc adapts a function to the Aggregator interface.
type AggregatorFunc func(evaluator string, outputs []models.EvaluatorOutput) (map[string]models.Metric, error)

func (f AggregatorFunc) Aggregate(evaluator string, outputs []models.EvaluatorOutput) (map[string]models.Metric, error) {
	return f(evaluator, outputs)
}

// Compute aggregates results without modifying them.
func Compute(results []models.ExperimentResult, agg Aggregator) (models.AggregatedMetrics, error) {
	var order []string
	grouped := make(map[string][]models.EvaluatorOutput)
	for _, r := range results {
		for _, o := range r.EvaluatorOutputs {
			if _, ok := grouped[o.Name]; !ok {
				order = append(order, o.Name)
			}
			grouped[o.Name] = append(grouped[o.Name], o)
		}
	}

	out := make(models.AggregatedMetrics, len(order))
	for _, name := range order {
		m, err := agg.Aggregate(name, grouped[name])
		if err != nil {
			return nil, fmt.Errorf("aggregating evaluator %q: %w", name, err)
		}
		if m == nil {
			m = map[string]models.Metric{}
		}
		out[name] = m
	}
	return out, nil
}

// Recompute replaces exp.AggregatedMetrics with metrics derived from
// exp.Results. exp is left untouched on error.
func Recompute(exp *models.Experiment, agg Aggregator) error {
	m, err := Compute(exp.Results, agg)
	if err != nil {
		return err
	}
	exp.AggregatedMetrics = m
	return nil
}

// ByCombination aggregates results separately for every combination, keyed
// by planner.Combination.Key.
func ByCombination(exp *models.Experiment, agg Aggregator) (map[string]models.AggregatedMetrics, error) {
	var order []string
	grouped := make(map[string][]models.ExperimentResult)
	for _, r := range exp.Results {
		key := planner.Combination(r.Combination).Key()
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], r)
	}

	out := make(map[string]models.AggregatedMetrics, len(order))
	for _, key := range order {
		m, err := Compute(grouped[key], agg)
		if err != nil {
			return nil, fmt.Errorf("combination %s: %w", key, err)
		}
		out[key] = m
	}
	return out, nil
}
