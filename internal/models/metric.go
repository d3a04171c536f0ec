package models

// Metric is a named value calculated from evaluator outputs. Description
// carries units and semantics.
type Metric struct {
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value" yaml:"value"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (m Metric) AsDict() (map[string]any, error) { return asDict(m) }

// AggregatedMetrics maps evaluator name to metric name to metric.
type AggregatedMetrics map[string]map[string]Metric

// Get returns the metric for an evaluator, if present.
func (a AggregatedMetrics) Get(evaluator, metric string) (Metric, bool) {
	m, ok := a[evaluator][metric]
	return m, ok
}

// ExperimentSummary holds the run-level metrics of an experiment.
type ExperimentSummary struct {
	AggregatedMetrics AggregatedMetrics `json:"aggregated_metrics" yaml:"aggregated_metrics"`
}

func (s ExperimentSummary) AsDict() (map[string]any, error) { return asDict(s) }

// Experiment owns the results of a run. AggregatedMetrics is derived from
// Results and must be recomputed whenever Results change.
type Experiment struct {
	Results           []ExperimentResult `json:"results" yaml:"results"`
	AggregatedMetrics AggregatedMetrics  `json:"aggregated_metrics" yaml:"aggregated_metrics"`
}

// Summary returns the run-level metrics without the results.
func (e *Experiment) Summary() ExperimentSummary {
	return ExperimentSummary{AggregatedMetrics: e.AggregatedMetrics}
}

// EvaluatorNames returns the name of every evaluator that produced at least
// one output, in order of first appearance.
func (e *Experiment) EvaluatorNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range e.Results {
		for _, o := range r.EvaluatorOutputs {
			if !seen[o.Name] {
				seen[o.Name] = true
				names = append(names, o.Name)
			}
		}
	}
	return names
}

func (e Experiment) AsDict() (map[string]any, error) { return asDict(e) }
