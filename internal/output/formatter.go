// Package output writes experiments through named formatters and reads
// previously written experiments back.
package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/yardstick/internal/models"
)

// Formatter serializes an experiment to path.
type Formatter interface {
	Format(exp *models.Experiment, path string) error
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(exp *models.Experiment, path string) error

func (f FormatterFunc) Format(exp *models.Experiment, path string) error { return f(exp, path) }

var (
	mu         sync.RWMutex
	formatters = map[string]Formatter{
		"json": FormatterFunc(writeJSON),
		"yaml": FormatterFunc(writeYAML),
	}
)

// Register adds a formatter under name. Built-in names cannot be replaced.
func Register(name string, f Formatter) error {
	if name == "" || f == nil {
		return fmt.Errorf("registering formatter %q: name and formatter are required", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := formatters[name]; exists {
		return fmt.Errorf("registering formatter %q: already registered", name)
	}
	formatters[name] = f
	return nil
}

// Lookup returns the formatter registered under name.
func Lookup(name string) (Formatter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := formatters[name]
	return f, ok
}

// Names returns registered formatter names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write formats exp according to cfg. A nil cfg disables output.
func Write(cfg *models.OutputConfig, exp *models.Experiment) error {
	if cfg == nil {
		return nil
	}
	f, ok := Lookup(cfg.Formatter)
	if !ok {
		return fmt.Errorf("unknown formatter %q (available: %v)", cfg.Formatter, Names())
	}
	if err := f.Format(exp, cfg.Path); err != nil {
		return fmt.Errorf("writing experiment with %s formatter: %w", cfg.Formatter, err)
	}
	slog.Debug("wrote experiment", "path", cfg.Path, "formatter", cfg.Formatter, "results", len(exp.Results))
	return nil
}

func writeJSON(exp *models.Experiment, path string) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding experiment: %w", err)
	}
	return writeFile(path, data)
}

func writeYAML(exp *models.Experiment, path string) error {
	data, err := yaml.Marshal(exp)
	if err != nil {
		return fmt.Errorf("encoding experiment: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
