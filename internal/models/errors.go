package models

import (
	"fmt"
	"strings"
)

// ErrorType identifies the category of a validation issue.
type ErrorType string

const (
	// Variation catalog
	ErrNoVariations         ErrorType = "no_variations"
	ErrWrapperNameMissing   ErrorType = "wrapper_name_missing"
	ErrDuplicateWrapper     ErrorType = "duplicate_wrapper"
	ErrEmptyWrapper         ErrorType = "empty_wrapper"
	ErrDuplicateVariationID ErrorType = "duplicate_variation_id"

	// Combination selection
	ErrUnknownWrapper        ErrorType = "unknown_wrapper"
	ErrUnknownVariation      ErrorType = "unknown_variation"
	ErrIncompleteCombination ErrorType = "incomplete_combination"

	// Evaluators
	ErrEvaluatorNameMissing ErrorType = "evaluator_name_missing"
	ErrDuplicateEvaluator   ErrorType = "duplicate_evaluator"
	ErrUnknownEvaluatorType ErrorType = "unknown_evaluator_type"
	ErrUnknownMetricMethod  ErrorType = "unknown_metric_method"

	// Output and human rating
	ErrOutputPathMissing ErrorType = "output_path_missing"
	ErrInvalidScale      ErrorType = "invalid_scale"
	ErrRatingOutOfScale  ErrorType = "rating_out_of_scale"

	// Results
	ErrUnknownEvaluatorMetrics ErrorType = "unknown_evaluator_metrics"

	// Catch-all for struct tag violations
	ErrInvalidField ErrorType = "invalid_field"
)

// Issue is a single validation failure.
type Issue struct {
	Type    ErrorType `json:"type"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.Type, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Field, i.Type, i.Message)
}

// ValidationError collects every issue found while validating a config or
// experiment.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0].String()
	}
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = "  " + issue.String()
	}
	return fmt.Sprintf("validation failed with %d issues:\n%s", len(e.Issues), strings.Join(lines, "\n"))
}

// Has reports whether an issue of the given type was recorded.
func (e *ValidationError) Has(t ErrorType) bool {
	for _, issue := range e.Issues {
		if issue.Type == t {
			return true
		}
	}
	return false
}

// Add records an issue.
func (e *ValidationError) Add(t ErrorType, field, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Type: t, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e when issues were recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}
