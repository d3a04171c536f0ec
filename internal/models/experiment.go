package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig is the declarative description of an experiment run.
// Optional sections that are absent disable the corresponding feature.
type ExperimentConfig struct {
	Description            string              `json:"description" yaml:"description" toml:"description"`
	Variations             []WrapperConfig     `json:"variations" yaml:"variations" toml:"variations" validate:"dive"`
	Dataset                DatasetConfig       `json:"dataset" yaml:"dataset" toml:"dataset"`
	WrapperConfigs         []BaseWrapperConfig `json:"wrapper_configs,omitempty" yaml:"wrapper_configs,omitempty" toml:"wrapper_configs,omitempty" validate:"dive"`
	CombinationsToRun      []CombinationEntry  `json:"combinations_to_run,omitempty" yaml:"combinations_to_run,omitempty" toml:"combinations_to_run,omitempty"`
	Evaluators             []EvaluatorConfig   `json:"evaluators,omitempty" yaml:"evaluators,omitempty" toml:"evaluators,omitempty"`
	Output                 *OutputConfig       `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	HumanRatingConfigs     []HumanRatingConfig `json:"human_rating_configs" yaml:"human_rating_configs" toml:"human_rating_configs"`
	ExistingExperimentPath *string             `json:"existing_experiment_path,omitempty" yaml:"existing_experiment_path,omitempty" toml:"existing_experiment_path,omitempty"`
	Version                *string             `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	OutputParser           *string             `json:"output_parser,omitempty" yaml:"output_parser,omitempty" toml:"output_parser,omitempty"`
	Metadata               map[string]any      `json:"metadata" yaml:"metadata" toml:"metadata"`
}

// Wrapper returns the wrapper config with the given name.
func (c *ExperimentConfig) Wrapper(name string) (*WrapperConfig, bool) {
	for i := range c.Variations {
		if c.Variations[i].Name == name {
			return &c.Variations[i], true
		}
	}
	return nil, false
}

// Evaluator returns the evaluator config with the given name.
func (c *ExperimentConfig) Evaluator(name string) (*EvaluatorConfig, bool) {
	for i := range c.Evaluators {
		if c.Evaluators[i].Name == name {
			return &c.Evaluators[i], true
		}
	}
	return nil, false
}

// AsDict returns the nested plain-data form of the config.
func (c ExperimentConfig) AsDict() (map[string]any, error) { return asDict(c) }

// DatasetConfig references the dataset an experiment runs over. Reading it
// is the dataset subsystem's job.
type DatasetConfig struct {
	SourceType   string         `json:"source_type" yaml:"source_type" toml:"source_type"`
	FilePath     string         `json:"file_path,omitempty" yaml:"file_path,omitempty" toml:"file_path,omitempty"`
	Reader       string         `json:"reader,omitempty" yaml:"reader,omitempty" toml:"reader,omitempty"`
	ReaderConfig map[string]any `json:"reader_config,omitempty" yaml:"reader_config,omitempty" toml:"reader_config,omitempty"`
}

// BaseWrapperConfig carries runtime settings for a wrapper.
type BaseWrapperConfig struct {
	Name   string         `json:"name" yaml:"name" toml:"name" validate:"required"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// EvaluatorType distinguishes per-output evaluators from comparison
// evaluators that judge several combinations against each other.
type EvaluatorType string

const (
	EvaluatorIndividual EvaluatorType = "individual"
	EvaluatorComparison EvaluatorType = "comparison"
)

// MetricMethod names a reduction applied to an evaluator's outputs.
type MetricMethod string

const (
	MetricAverage MetricMethod = "average"
	MetricSum     MetricMethod = "sum"
	MetricMin     MetricMethod = "min"
	MetricMax     MetricMethod = "max"
	MetricCount   MetricMethod = "count"
)

// Valid reports whether m is a known method.
func (m MetricMethod) Valid() bool {
	switch m {
	case MetricAverage, MetricSum, MetricMin, MetricMax, MetricCount:
		return true
	}
	return false
}

type MetricCalculatorConfig struct {
	Method MetricMethod `json:"method" yaml:"method" toml:"method"`
}

// EvaluatorConfig declares an evaluator. Comparison evaluators use the same
// shape with EvaluatorType set to comparison.
type EvaluatorConfig struct {
	Name              string                   `json:"name" yaml:"name" toml:"name"`
	EvaluatorType     EvaluatorType            `json:"evaluator_type" yaml:"evaluator_type" toml:"evaluator_type"`
	MetricCalculators []MetricCalculatorConfig `json:"metric_calculators,omitempty" yaml:"metric_calculators,omitempty" toml:"metric_calculators,omitempty"`
	Params            map[string]any           `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// OutputConfig names where and how the experiment is written. Formatter is
// the name of a registered formatter.
type OutputConfig struct {
	Path      string `json:"path" yaml:"path" toml:"path" validate:"required"`
	Formatter string `json:"formatter" yaml:"formatter" toml:"formatter"`
}

// CombinationEntry selects one variation of one wrapper group. It is encoded
// as a two element sequence: [group, variation].
type CombinationEntry struct {
	Group     string
	Variation string
}

func (e CombinationEntry) String() string { return e.Group + "=" + e.Variation }

func (e CombinationEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Group, e.Variation})
}

func (e *CombinationEntry) UnmarshalJSON(data []byte) error {
	var pair []any
	if err := json.Unmarshal(data, &pair); err == nil {
		return e.fromPair(pair)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("combination entry: expected [group, variation]: %w", err)
	}
	return e.fromMap(m)
}

func (e CombinationEntry) MarshalYAML() (any, error) {
	return []string{e.Group, e.Variation}, nil
}

func (e *CombinationEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []any
		if err := node.Decode(&pair); err != nil {
			return err
		}
		return e.fromPair(pair)
	case yaml.MappingNode:
		if err := knownKeys(node, "combination entry", "group", "variation"); err != nil {
			return err
		}
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			return err
		}
		return e.fromMap(m)
	default:
		return fmt.Errorf("line %d: combination entry must be [group, variation]", node.Line)
	}
}

func (e *CombinationEntry) UnmarshalTOML(data any) error {
	switch t := data.(type) {
	case []any:
		return e.fromPair(t)
	case map[string]any:
		return e.fromMap(t)
	default:
		return fmt.Errorf("combination entry: unexpected %T", data)
	}
}

func (e *CombinationEntry) fromPair(pair []any) error {
	if len(pair) != 2 {
		return fmt.Errorf("combination entry: expected 2 elements, got %d", len(pair))
	}
	group, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("combination entry: group must be a string, got %T", pair[0])
	}
	e.Group = group
	e.Variation = fmt.Sprint(pair[1])
	return nil
}

func (e *CombinationEntry) fromMap(m map[string]any) error {
	group, ok := m["group"].(string)
	if !ok {
		return fmt.Errorf("combination entry: group must be a string")
	}
	v, ok := m["variation"]
	if !ok {
		return fmt.Errorf("combination entry %q: missing variation", group)
	}
	e.Group = group
	e.Variation = fmt.Sprint(v)
	return nil
}

// Scale is an inclusive [min, max] rating range.
type Scale [2]float64

// DefaultScale is used when a rating or rating config declares no scale.
var DefaultScale = Scale{1.0, 5.0}

func (s Scale) Min() float64 { return s[0] }
func (s Scale) Max() float64 { return s[1] }

// Contains reports whether r lies within the scale.
func (s Scale) Contains(r float64) bool { return s[0] <= r && r <= s[1] }

// IsZero reports whether the scale was left unset.
func (s Scale) IsZero() bool { return s == Scale{} }

// HumanRating is a human judgement of one aspect of an output. Rating is
// expected, not required, to lie within Scale.
type HumanRating struct {
	Aspect string  `json:"aspect" yaml:"aspect" toml:"aspect"`
	Rating float64 `json:"rating" yaml:"rating" toml:"rating"`
	Scale  Scale   `json:"scale" yaml:"scale" toml:"scale"`
}

// humanRatingFields mirrors HumanRating without its methods so decoding does
// not recurse.
type humanRatingFields HumanRating

// UnmarshalJSON applies DefaultScale when no scale is stored.
func (h *HumanRating) UnmarshalJSON(data []byte) error {
	f := humanRatingFields{Scale: DefaultScale}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*h = HumanRating(f)
	return nil
}

// UnmarshalYAML applies DefaultScale when no scale is stored.
func (h *HumanRating) UnmarshalYAML(node *yaml.Node) error {
	if err := knownKeys(node, "human rating", "aspect", "rating", "scale"); err != nil {
		return err
	}
	f := humanRatingFields{Scale: DefaultScale}
	if err := node.Decode(&f); err != nil {
		return err
	}
	*h = HumanRating(f)
	return nil
}

// NewHumanRating returns a rating on the default scale.
func NewHumanRating(aspect string, rating float64) HumanRating {
	return HumanRating{Aspect: aspect, Rating: rating, Scale: DefaultScale}
}

// InScale reports whether the rating lies within its scale.
func (h HumanRating) InScale() bool { return h.Scale.Contains(h.Rating) }

func (h HumanRating) AsDict() (map[string]any, error) { return asDict(h) }

// HumanRatingConfig lists the aspects humans are asked to rate.
type HumanRatingConfig struct {
	Aspects []string `json:"aspects" yaml:"aspects" toml:"aspects"`
	Scale   Scale    `json:"scale" yaml:"scale" toml:"scale"`
}

func (h HumanRatingConfig) AsDict() (map[string]any, error) { return asDict(h) }

// ComparisonOutput is the verdict of a comparison evaluator. BetterOutput
// names the winning wrapper or combination.
type ComparisonOutput struct {
	BetterOutput string `json:"better_output" yaml:"better_output" toml:"better_output"`
	Reason       string `json:"reason" yaml:"reason" toml:"reason"`
}
