package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/yardstick/internal/models"
)

// LoadExperiment reads an experiment from a local path or an http(s) URL.
// YAML is used for .yaml and .yml locations, JSON otherwise.
func LoadExperiment(ctx context.Context, location string) (*models.Experiment, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return LoadFromURL(ctx, location)
	}
	return LoadFromPath(location)
}

// LoadFromPath loads an experiment from the local filesystem.
func LoadFromPath(path string) (*models.Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment file: %w", err)
	}
	return decode(path, data)
}

// LoadFromURL loads an experiment from a remote URL.
func LoadFromURL(ctx context.Context, rawURL string) (*models.Experiment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching experiment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching experiment: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	return decode(name, data)
}

func decode(name string, data []byte) (*models.Experiment, error) {
	var exp models.Experiment
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &exp); err != nil {
			return nil, fmt.Errorf("parsing experiment YAML: %w", err)
		}
	default:
		// json.Number keeps free-form results and inputs lossless.
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&exp); err != nil {
			return nil, fmt.Errorf("parsing experiment JSON: %w", err)
		}
	}
	if exp.AggregatedMetrics == nil {
		exp.AggregatedMetrics = models.AggregatedMetrics{}
	}
	return &exp, nil
}
