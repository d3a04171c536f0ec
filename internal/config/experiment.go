package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/yardstick/internal/models"
)

// VersionLayout formats the default experiment version.
const VersionLayout = "2006-01-02__15-04-05"

// DefaultFormatter is used when an output section names no formatter.
const DefaultFormatter = "json"

// Format identifies the encoding of a config file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the config format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// DefaultExperimentConfig returns an ExperimentConfig with default values.
func DefaultExperimentConfig() models.ExperimentConfig {
	return models.ExperimentConfig{
		HumanRatingConfigs: []models.HumanRatingConfig{},
		Metadata:           map[string]any{},
	}
}

// LoadExperimentConfig loads, defaults and validates an experiment config
// file.
func LoadExperimentConfig(path string) (models.ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultExperimentConfig(), fmt.Errorf("reading experiment config: %w", err)
	}
	return parse(path, data)
}

// LoadExperimentConfigFS loads an experiment config named name from fsys.
func LoadExperimentConfigFS(fsys fs.FS, name string) (models.ExperimentConfig, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return DefaultExperimentConfig(), fmt.Errorf("reading %s: %w", name, err)
	}
	return parse(name, data)
}

func parse(name string, data []byte) (models.ExperimentConfig, error) {
	format, err := FormatFromPath(name)
	if err != nil {
		return DefaultExperimentConfig(), err
	}

	cfg, err := Decode(format, data)
	if err != nil {
		return cfg, err
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}

	slog.Debug("loaded experiment config",
		"path", name,
		"format", format,
		"wrappers", len(cfg.Variations),
		"evaluators", len(cfg.Evaluators))
	return cfg, nil
}

// Decode parses data without applying defaults or validating.
func Decode(format Format, data []byte) (models.ExperimentConfig, error) {
	cfg := DefaultExperimentConfig()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing experiment config: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing experiment config: %w", err)
		}
		for _, key := range md.Undecoded() {
			slog.Warn("ignoring unknown experiment config key", "key", key.String())
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q", format)
	}

	return cfg, nil
}

// ApplyDefaults fills in values an experiment config may leave unset.
func ApplyDefaults(cfg *models.ExperimentConfig) {
	if cfg.Metadata == nil {
		cfg.Metadata = map[string]any{}
	}
	if cfg.HumanRatingConfigs == nil {
		cfg.HumanRatingConfigs = []models.HumanRatingConfig{}
	}
	for i := range cfg.HumanRatingConfigs {
		if cfg.HumanRatingConfigs[i].Scale.IsZero() {
			cfg.HumanRatingConfigs[i].Scale = models.DefaultScale
		}
	}
	for i := range cfg.Evaluators {
		ev := &cfg.Evaluators[i]
		if ev.EvaluatorType == "" {
			ev.EvaluatorType = models.EvaluatorIndividual
		}
		if len(ev.MetricCalculators) == 0 {
			ev.MetricCalculators = []models.MetricCalculatorConfig{{Method: models.MetricAverage}}
		}
	}
	if cfg.Output != nil && cfg.Output.Formatter == "" {
		cfg.Output.Formatter = DefaultFormatter
	}
	if cfg.Version == nil {
		v := time.Now().Format(VersionLayout)
		cfg.Version = &v
	}
}
