package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spachava753/yardstick/internal/config"
	"github.com/spachava753/yardstick/internal/metrics"
	"github.com/spachava753/yardstick/internal/models"
	"github.com/spachava753/yardstick/internal/output"
	"github.com/spachava753/yardstick/internal/planner"
)

const maxConcurrentValidations = 8

func buildValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>...",
		Short: "Load and validate one or more experiment configs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := make([]error, len(args))

			var g errgroup.Group
			g.SetLimit(maxConcurrentValidations)
			for i, path := range args {
				g.Go(func() error {
					_, errs[i] = config.LoadExperimentConfig(path)
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			for i, path := range args {
				if errs[i] != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n%v\n", path, errs[i])
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configs failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func buildPlanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <config>",
		Short: "List the variation combinations an experiment would run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadExperimentConfig(args[0])
			if err != nil {
				return err
			}
			combos, err := planner.Plan(&cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(combos)
			}
			for _, combo := range combos {
				fmt.Fprintln(out, combo.Key())
			}
			slog.Info("planned experiment", "config", args[0], "combinations", len(combos))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print combinations as JSON")
	return cmd
}

func buildSummarizeCmd() *cobra.Command {
	var (
		configPath    string
		outputPath    string
		formatter     string
		byCombination bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [experiment]",
		Short: "Recompute aggregated metrics for a stored experiment",
		Long: `Loads an experiment from a path or http(s) URL, recomputes its aggregated
metrics and prints them. Without an argument the experiment named by the
config's existing_experiment_path is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *models.ExperimentConfig
			if configPath != "" {
				c, err := config.LoadExperimentConfig(configPath)
				if err != nil {
					return err
				}
				cfg = &c
			}

			location, err := experimentLocation(args, cfg)
			if err != nil {
				return err
			}

			exp, err := output.LoadExperiment(cmd.Context(), location)
			if err != nil {
				return err
			}
			if err := metrics.Recompute(exp, metrics.NewCalculatorAggregator(cfg)); err != nil {
				return fmt.Errorf("recomputing metrics: %w", err)
			}
			if cfg != nil {
				if err := config.ValidateResults(cfg, exp); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			printMetrics(cmd, "", exp.AggregatedMetrics)
			if byCombination {
				grouped, err := metrics.ByCombination(exp, metrics.NewCalculatorAggregator(cfg))
				if err != nil {
					return fmt.Errorf("grouping metrics: %w", err)
				}
				for _, key := range slices.Sorted(maps.Keys(grouped)) {
					fmt.Fprintf(out, "\n[%s]\n", key)
					printMetrics(cmd, "  ", grouped[key])
				}
			}

			var outCfg *models.OutputConfig
			switch {
			case outputPath != "":
				outCfg = &models.OutputConfig{Path: outputPath, Formatter: formatter}
			case cfg != nil:
				outCfg = cfg.Output
			}
			if err := output.Write(outCfg, exp); err != nil {
				return err
			}

			slog.Info("summarized experiment", "location", location, "results", len(exp.Results))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Experiment config used for metric calculators and result validation")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the recomputed experiment to this path")
	cmd.Flags().StringVar(&formatter, "format", config.DefaultFormatter, "Formatter used with --output")
	cmd.Flags().BoolVar(&byCombination, "by-combination", false, "Also print metrics per variation combination")
	return cmd
}

func experimentLocation(args []string, cfg *models.ExperimentConfig) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg != nil && cfg.ExistingExperimentPath != nil && *cfg.ExistingExperimentPath != "" {
		return *cfg.ExistingExperimentPath, nil
	}
	return "", errors.New("no experiment given and config has no existing_experiment_path")
}

func printMetrics(cmd *cobra.Command, indent string, agg models.AggregatedMetrics) {
	out := cmd.OutOrStdout()
	for _, evaluator := range slices.Sorted(maps.Keys(agg)) {
		for _, name := range slices.Sorted(maps.Keys(agg[evaluator])) {
			fmt.Fprintf(out, "%s%s\t%s\t%.4f\n", indent, evaluator, name, agg[evaluator][name].Value)
		}
	}
}
