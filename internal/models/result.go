package models

// InputData is one example from the dataset.
type InputData struct {
	ExampleID      *string        `json:"example_id,omitempty" yaml:"example_id,omitempty"`
	Content        map[string]any `json:"content" yaml:"content"`
	ExpectedResult any            `json:"expected_result,omitempty" yaml:"expected_result,omitempty"`
}

// EvaluatorOutput is one scored output produced by an evaluator.
type EvaluatorOutput struct {
	Name              string                   `json:"name" yaml:"name"`
	Result            any                      `json:"result" yaml:"result"`
	DisplayName       *string                  `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	MetricCalculators []MetricCalculatorConfig `json:"metric_calculators,omitempty" yaml:"metric_calculators,omitempty"`
}

// ExperimentResult is the outcome for one input under one combination of
// variations. Latency and TokenUsage are measured by the executor.
type ExperimentResult struct {
	InputData        InputData         `json:"input_data" yaml:"input_data"`
	Combination      map[string]string `json:"combination" yaml:"combination"`
	RawOutput        string            `json:"raw_output" yaml:"raw_output"`
	Latency          float64           `json:"latency" yaml:"latency"`
	TokenUsage       int               `json:"token_usage" yaml:"token_usage"`
	EvaluatorOutputs []EvaluatorOutput `json:"evaluator_outputs" yaml:"evaluator_outputs"`
	HumanRating      *HumanRating      `json:"human_rating,omitempty" yaml:"human_rating,omitempty"`
	IntermediateLogs []string          `json:"intermediate_logs" yaml:"intermediate_logs"`
}

// AsDict returns the nested plain-data form of the result.
func (r ExperimentResult) AsDict() (map[string]any, error) { return asDict(r) }

// OutputsFor returns the outputs produced by the named evaluator.
func (r ExperimentResult) OutputsFor(evaluator string) []EvaluatorOutput {
	var out []EvaluatorOutput
	for _, o := range r.EvaluatorOutputs {
		if o.Name == evaluator {
			out = append(out, o)
		}
	}
	return out
}
