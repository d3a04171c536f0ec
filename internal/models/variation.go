package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/yardstick/internal/instantiate"
)

// WrapperVariation is one candidate value for a wrapper slot. The
// instantiated value is derived once from (value_type, value) at
// construction and never changes afterwards.
type WrapperVariation struct {
	valueType    string
	value        any
	variationID  string
	instantiated any
}

// NewWrapperVariation instantiates value according to valueType using the
// process-wide extension registry. variationID may be empty.
func NewWrapperVariation(valueType string, value any, variationID string) (WrapperVariation, error) {
	v, err := instantiate.Instantiate(valueType, value)
	if err != nil {
		return WrapperVariation{}, err
	}
	return WrapperVariation{
		valueType:    valueType,
		value:        value,
		variationID:  variationID,
		instantiated: v,
	}, nil
}

// MustWrapperVariation is like NewWrapperVariation but panics on error.
func MustWrapperVariation(valueType string, value any, variationID string) WrapperVariation {
	v, err := NewWrapperVariation(valueType, value, variationID)
	if err != nil {
		panic(err)
	}
	return v
}

// ValueType returns the declared type tag.
func (v WrapperVariation) ValueType() string { return v.valueType }

// Value returns the raw declared payload.
func (v WrapperVariation) Value() any { return v.value }

// ID returns the variation id, empty when none was declared.
func (v WrapperVariation) ID() string { return v.variationID }

// InstantiatedValue returns the runtime value derived from the declaration.
func (v WrapperVariation) InstantiatedValue() any { return v.instantiated }

// Equal compares the declared fields. Values are compared by their JSON
// encoding so a value that went through a JSON round trip still compares
// equal to the original.
func (v WrapperVariation) Equal(o WrapperVariation) bool {
	if v.valueType != o.valueType || v.variationID != o.variationID {
		return false
	}
	a, errA := json.Marshal(v.value)
	b, errB := json.Marshal(o.value)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// variationDoc is the persisted shape of a WrapperVariation.
type variationDoc struct {
	ValueType         string `json:"value_type" yaml:"value_type"`
	Value             any    `json:"value" yaml:"value"`
	VariationID       string `json:"variation_id,omitempty" yaml:"variation_id,omitempty"`
	InstantiatedValue any    `json:"instantiated_value,omitempty" yaml:"instantiated_value,omitempty"`
}

func (v WrapperVariation) doc() variationDoc {
	return variationDoc{
		ValueType:         v.valueType,
		Value:             v.value,
		VariationID:       v.variationID,
		InstantiatedValue: v.instantiated,
	}
}

func (v *WrapperVariation) fromDoc(d variationDoc) error {
	if d.ValueType == "" {
		return fmt.Errorf("variation %q: value_type is required", d.VariationID)
	}
	nv, err := NewWrapperVariation(d.ValueType, normalize(d.Value), d.VariationID)
	if err != nil {
		return fmt.Errorf("instantiating variation %q: %w", d.VariationID, err)
	}
	*v = nv
	return nil
}

func (v WrapperVariation) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.doc())
}

// UnmarshalJSON ignores any persisted instantiated_value and recomputes it.
// Numbers are kept as json.Number so integers beyond 2^53 survive.
func (v *WrapperVariation) UnmarshalJSON(data []byte) error {
	var d variationDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return err
	}
	return v.fromDoc(d)
}

func (v WrapperVariation) MarshalYAML() (any, error) {
	return v.doc(), nil
}

// UnmarshalYAML ignores any persisted instantiated_value and recomputes it.
func (v *WrapperVariation) UnmarshalYAML(node *yaml.Node) error {
	if err := knownKeys(node, "variation", "value_type", "value", "variation_id", "instantiated_value"); err != nil {
		return err
	}
	var d variationDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	return v.fromDoc(d)
}

// UnmarshalTOML receives the table decoded by BurntSushi/toml.
func (v *WrapperVariation) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("variation: expected table, got %T", data)
	}
	var d variationDoc
	d.ValueType, _ = m["value_type"].(string)
	d.VariationID, _ = m["variation_id"].(string)
	d.Value = m["value"]
	return v.fromDoc(d)
}

// AsDict returns the nested plain-data form of the variation.
func (v WrapperVariation) AsDict() (map[string]any, error) { return asDict(v) }

// WrapperConfig is the ordered list of candidate variations for one named
// wrapper.
type WrapperConfig struct {
	Name       string             `json:"name" yaml:"name" toml:"name"`
	Variations []WrapperVariation `json:"variations" yaml:"variations" toml:"variations"`
}

// VariationKey returns the key used for the variation at index i in a
// combination: its id, or its index when no id was declared.
func (c WrapperConfig) VariationKey(i int) string {
	if id := c.Variations[i].ID(); id != "" {
		return id
	}
	return fmt.Sprint(i)
}

// VariationKeys returns the combination keys of every variation in order.
func (c WrapperConfig) VariationKeys() []string {
	keys := make([]string, len(c.Variations))
	for i := range c.Variations {
		keys[i] = c.VariationKey(i)
	}
	return keys
}

// Variation returns the variation addressed by key.
func (c WrapperConfig) Variation(key string) (WrapperVariation, bool) {
	for i, v := range c.Variations {
		if c.VariationKey(i) == key {
			return v, true
		}
	}
	return WrapperVariation{}, false
}

// DuplicateVariationKeys returns every combination key used by more than one
// variation, in order of first repetition. An explicit id can collide with
// the index key of a variation that has no id.
func (c WrapperConfig) DuplicateVariationKeys() []string {
	seen := make(map[string]int)
	var dups []string
	for _, key := range c.VariationKeys() {
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups
}

// AsDict returns the nested plain-data form of the wrapper config.
func (c WrapperConfig) AsDict() (map[string]any, error) { return asDict(c) }
