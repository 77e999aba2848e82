package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodycal/custody-engine/internal/domain"
)

// plainRule has CustodyRule's fields without its codec methods.
type plainRule CustodyRule

// UnmarshalYAML decodes the rule and then its type-specific data block.
func (r *CustodyRule) UnmarshalYAML(node *yaml.Node) error {
	var doc struct {
		plainRule `yaml:",inline"`
		Data      yaml.Node `yaml:"data"`
	}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*r = CustodyRule(doc.plainRule)

	data, err := NewData(r.Type)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}
	if doc.Data.Kind != 0 {
		if err := doc.Data.Decode(data); err != nil {
			return fmt.Errorf("rule %q data: %w", r.ID, err)
		}
	}
	r.Data = data
	return nil
}

// MarshalYAML writes the data block under "data".
func (r CustodyRule) MarshalYAML() (any, error) {
	return struct {
		plainRule `yaml:",inline"`
		Data      RuleData `yaml:"data,omitempty"`
	}{plainRule(r), r.Data}, nil
}

// UnmarshalJSON decodes the rule and its type-specific data. Unlike the
// YAML loader it accepts a missing or unknown type.
func (r *CustodyRule) UnmarshalJSON(b []byte) error {
	var doc struct {
		*plainRule
		Data json.RawMessage `json:"data"`
	}
	doc.plainRule = (*plainRule)(r)
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	// An unknown type leaves Data nil; ValidateRule reports it.
	data, err := NewData(r.Type)
	if err != nil {
		r.Data = nil
		return nil
	}
	if len(doc.Data) > 0 && !bytes.Equal(doc.Data, []byte("null")) {
		if err := json.Unmarshal(doc.Data, data); err != nil {
			return fmt.Errorf("rule %q data: %w", r.ID, err)
		}
	}
	r.Data = data
	return nil
}

// Parse reads a YAML rule-set document.
func Parse(b []byte) (*RuleSet, error) {
	var set RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, domain.WrapEngineError(domain.ErrCatalogInvalid.Code, "parse rule set", err)
	}
	seen := make(map[string]bool, len(set.Rules))
	for _, r := range set.Rules {
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return nil, domain.ErrDuplicateRule.Detail("%q", r.ID)
		}
		seen[r.ID] = true
	}
	return &set, nil
}

// LoadFile reads a YAML rule-set file.
func LoadFile(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrCatalogInvalid.Code, "read rule set", err)
	}
	return Parse(b)
}

// Marshal writes a rule set as YAML.
func Marshal(set *RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
