package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/spachava753/yardstick/internal/models"
)

// CalculatorAggregator applies the metric calculators attached to evaluator
// outputs. Outputs without calculators fall back to the evaluator's
// configured calculators, then to average.
type CalculatorAggregator struct {
	Evaluators []models.EvaluatorConfig
}

// NewCalculatorAggregator returns an aggregator using the evaluators declared
// in cfg as fallbacks.
func NewCalculatorAggregator(cfg *models.ExperimentConfig) *CalculatorAggregator {
	if cfg == nil {
		return &CalculatorAggregator{}
	}
	return &CalculatorAggregator{Evaluators: cfg.Evaluators}
}

// MetricName returns the name used for method applied to evaluator.
func MetricName(method models.MetricMethod, evaluator string) string {
	return string(method) + "_" + evaluator
}

func (a *CalculatorAggregator) Aggregate(evaluator string, outputs []models.EvaluatorOutput) (map[string]models.Metric, error) {
	methods, err := a.methods(evaluator, outputs)
	if err != nil {
		return nil, err
	}

	var samples []float64
	for _, o := range outputs {
		if v, ok := numeric(o.Result); ok {
			samples = append(samples, v)
		}
	}

	out := make(map[string]models.Metric, len(methods))
	for _, method := range methods {
		if method == models.MetricCount {
			addCount(out, evaluator, len(outputs))
			continue
		}
		if len(samples) == 0 {
			continue
		}
		name := MetricName(method, evaluator)
		desc := fmt.Sprintf("%s of %d numeric %s outputs", method, len(samples), evaluator)
		out[name] = models.Metric{Name: name, Value: reduce(method, samples), Description: &desc}
	}
	// Every evaluator with outputs keeps at least one metric, even when no
	// result was numeric.
	if len(out) == 0 && len(outputs) > 0 {
		addCount(out, evaluator, len(outputs))
	}
	return out, nil
}

func addCount(out map[string]models.Metric, evaluator string, n int) {
	name := MetricName(models.MetricCount, evaluator)
	desc := fmt.Sprintf("number of %s outputs", evaluator)
	out[name] = models.Metric{Name: name, Value: float64(n), Description: &desc}
}

func (a *CalculatorAggregator) methods(evaluator string, outputs []models.EvaluatorOutput) ([]models.MetricMethod, error) {
	var methods []models.MetricMethod
	add := func(calcs []models.MetricCalculatorConfig) error {
		for _, c := range calcs {
			if !c.Method.Valid() {
				return fmt.Errorf("unknown metric method %q", c.Method)
			}
			if !slices.Contains(methods, c.Method) {
				methods = append(methods, c.Method)
			}
		}
		return nil
	}

	for _, o := range outputs {
		if err := add(o.MetricCalculators); err != nil {
			return nil, err
		}
	}
	if len(methods) == 0 {
		for _, ev := range a.Evaluators {
			if ev.Name == evaluator {
				if err := add(ev.MetricCalculators); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(methods) == 0 {
		methods = []models.MetricMethod{models.MetricAverage}
	}
	return methods, nil
}

func reduce(method models.MetricMethod, samples []float64) float64 {
	switch method {
	case models.MetricSum:
		return sum(samples)
	case models.MetricMin:
		m := math.Inf(1)
		for _, s := range samples {
			m = math.Min(m, s)
		}
		return m
	case models.MetricMax:
		m := math.Inf(-1)
		for _, s := range samples {
			m = math.Max(m, s)
		}
		return m
	default:
		return sum(samples) / float64(len(samples))
	}
}

func sum(samples []float64) float64 {
	var total float64
	for _, s := range samples {
		total += s
	}
	return total
}

// numeric extracts a score from an evaluator result. Bools count as 1 or 0.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}
