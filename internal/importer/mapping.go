package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldRule declares where one note-type field takes its value from.
// Exactly one of FieldIndex/Ignore applies: Ignore leaves the field empty,
// otherwise FieldIndex names the raw-record column. Optional rules map a
// missing column to the empty string instead of failing the record.
type FieldRule struct {
	FieldIndex int  `yaml:"field_index"`
	Ignore     bool `yaml:"ignore,omitempty"`
	Optional   bool `yaml:"optional,omitempty"`
}

// FieldMapping aligns raw-record columns with a note type's field list.
// Rules are ordered like the note type's fields. TagsColumn, when >= 0,
// names a raw column whose whitespace-separated value becomes tags.
type FieldMapping struct {
	Rules      []FieldRule `yaml:"fields"`
	TagsColumn int         `yaml:"tags_column"`
}

// UnmarshalYAML defaults TagsColumn to -1 before decoding, so a mapping
// that never mentions tags_column leaves tag extraction disabled instead
// of pointing at column 0. Applies to nested mappings (pack manifests) as
// well as standalone mapping files.
func (m *FieldMapping) UnmarshalYAML(value *yaml.Node) error {
	type plain FieldMapping
	out := plain{TagsColumn: -1}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*m = FieldMapping(out)
	return nil
}

// NewIdentityMapping maps column i to field i for a note type with
// fieldCount fields. All rules are optional, so short records fill
// trailing fields with empty strings rather than erroring.
func NewIdentityMapping(fieldCount int) FieldMapping {
	rules := make([]FieldRule, fieldCount)
	for i := range rules {
		rules[i] = FieldRule{FieldIndex: i, Optional: true}
	}
	return FieldMapping{Rules: rules, TagsColumn: -1}
}

// LoadMapping reads a field mapping from a YAML file.
func LoadMapping(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldMapping{}, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes a YAML field mapping.
func ParseMapping(data []byte) (FieldMapping, error) {
	m := FieldMapping{TagsColumn: -1}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return FieldMapping{}, fmt.Errorf("failed to parse mapping: %w", err)
	}
	return m, nil
}

// Validate checks the mapping against a note type's field count.
func (m FieldMapping) Validate(fieldCount int) error {
	if len(m.Rules) != fieldCount {
		return fmt.Errorf("mapping has %d rules, note type has %d fields", len(m.Rules), fieldCount)
	}
	for i, rule := range m.Rules {
		if !rule.Ignore && rule.FieldIndex < 0 {
			return fmt.Errorf("rule %d: negative field index", i)
		}
	}
	return nil
}
