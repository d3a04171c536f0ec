package config

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spachava753/yardstick/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks an experiment config before any run starts. Every problem
// found is reported in a single *models.ValidationError.
func Validate(cfg *models.ExperimentConfig) error {
	verr := &models.ValidationError{}

	validateFields(cfg, verr)
	validateVariations(cfg, verr)
	validateCombinations(cfg, verr)
	validateEvaluators(cfg, verr)

	for i, hr := range cfg.HumanRatingConfigs {
		if !hr.Scale.IsZero() && hr.Scale.Min() > hr.Scale.Max() {
			verr.Add(models.ErrInvalidScale, fmt.Sprintf("human_rating_configs[%d].scale", i),
				"min %g is greater than max %g", hr.Scale.Min(), hr.Scale.Max())
		}
	}

	return verr.Err()
}

func validateFields(cfg *models.ExperimentConfig, verr *models.ValidationError) {
	err := validate.Struct(cfg)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(models.ErrInvalidField, "", "%v", err)
		return
	}
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		t := models.ErrInvalidField
		if field == "output.path" {
			t = models.ErrOutputPathMissing
		}
		verr.Add(t, field, "failed %q constraint", fe.Tag())
	}
}

func validateVariations(cfg *models.ExperimentConfig, verr *models.ValidationError) {
	if len(cfg.Variations) == 0 {
		verr.Add(models.ErrNoVariations, "variations", "at least one wrapper config is required")
		return
	}

	seen := make(map[string]bool)
	for i, wc := range cfg.Variations {
		field := fmt.Sprintf("variations[%d]", i)
		if wc.Name == "" {
			verr.Add(models.ErrWrapperNameMissing, field+".name", "wrapper name is required")
		} else if seen[wc.Name] {
			verr.Add(models.ErrDuplicateWrapper, field+".name", "wrapper %q is declared more than once", wc.Name)
		}
		seen[wc.Name] = true

		if len(wc.Variations) == 0 {
			verr.Add(models.ErrEmptyWrapper, field+".variations", "wrapper %q has no variations", wc.Name)
		}
		for _, key := range wc.DuplicateVariationKeys() {
			verr.Add(models.ErrDuplicateVariationID, field+".variations", "variation key %q is used more than once in wrapper %q", key, wc.Name)
		}
	}
}

func validateCombinations(cfg *models.ExperimentConfig, verr *models.ValidationError) {
	for i, entry := range cfg.CombinationsToRun {
		field := fmt.Sprintf("combinations_to_run[%d]", i)
		wc, ok := cfg.Wrapper(entry.Group)
		if !ok {
			verr.Add(models.ErrUnknownWrapper, field, "no wrapper named %q", entry.Group)
			continue
		}
		if !slices.Contains(wc.VariationKeys(), entry.Variation) {
			verr.Add(models.ErrUnknownVariation, field, "wrapper %q has no variation %q", entry.Group, entry.Variation)
		}
	}
}

func validateEvaluators(cfg *models.ExperimentConfig, verr *models.ValidationError) {
	seen := make(map[string]bool)
	for i, ev := range cfg.Evaluators {
		field := fmt.Sprintf("evaluators[%d]", i)
		switch {
		case ev.Name == "":
			verr.Add(models.ErrEvaluatorNameMissing, field+".name", "evaluator name is required")
		case seen[ev.Name]:
			verr.Add(models.ErrDuplicateEvaluator, field+".name", "evaluator %q is declared more than once", ev.Name)
		}
		seen[ev.Name] = true

		switch ev.EvaluatorType {
		case "", models.EvaluatorIndividual, models.EvaluatorComparison:
		default:
			verr.Add(models.ErrUnknownEvaluatorType, field+".evaluator_type", "unknown evaluator type %q", ev.EvaluatorType)
		}
		for j, mc := range ev.MetricCalculators {
			if !mc.Method.Valid() {
				verr.Add(models.ErrUnknownMetricMethod, fmt.Sprintf("%s.metric_calculators[%d].method", field, j), "unknown metric method %q", mc.Method)
			}
		}
	}
}

// ValidateResults checks a finished or persisted experiment against the
// config that produced it.
func ValidateResults(cfg *models.ExperimentConfig, exp *models.Experiment) error {
	verr := &models.ValidationError{}

	for i, r := range exp.Results {
		field := fmt.Sprintf("results[%d]", i)
		for _, name := range slices.Sorted(maps.Keys(r.Combination)) {
			key := r.Combination[name]
			wc, ok := cfg.Wrapper(name)
			if !ok {
				verr.Add(models.ErrUnknownWrapper, field+".combination", "no wrapper named %q", name)
				continue
			}
			if _, ok := wc.Variation(key); !ok {
				verr.Add(models.ErrUnknownVariation, field+".combination", "wrapper %q has no variation %q", name, key)
			}
		}
		for _, wc := range cfg.Variations {
			if _, ok := r.Combination[wc.Name]; !ok {
				verr.Add(models.ErrIncompleteCombination, field+".combination", "no variation chosen for wrapper %q", wc.Name)
			}
		}
		if r.HumanRating != nil && !r.HumanRating.InScale() {
			verr.Add(models.ErrRatingOutOfScale, field+".human_rating",
				"rating %g for %q is outside [%g, %g]", r.HumanRating.Rating, r.HumanRating.Aspect,
				r.HumanRating.Scale.Min(), r.HumanRating.Scale.Max())
		}
	}

	produced := exp.EvaluatorNames()
	for _, name := range slices.Sorted(maps.Keys(exp.AggregatedMetrics)) {
		if !slices.Contains(produced, name) {
			verr.Add(models.ErrUnknownEvaluatorMetrics, "aggregated_metrics", "evaluator %q has metrics but no outputs", name)
		}
	}

	return verr.Err()
}
