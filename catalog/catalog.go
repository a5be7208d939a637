// Package catalog ships the built-in example rules offered by the web UI.
// The catalog is embedded at build time, so the binary needs no data files
// on disk.
package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var examplesFS embed.FS

// Example is one ready-to-analyze SIEM rule.
type Example struct {
	// Name labels the example in menus (e.g. "Splunk - Process Creation").
	Name string `yaml:"name" json:"name"`

	// Rule is the rule text in its native SIEM syntax.
	Rule string `yaml:"rule" json:"rule"`
}

// Examples returns the built-in example rules in catalog order.
func Examples() ([]Example, error) {
	data, err := examplesFS.ReadFile("examples.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}

	var doc struct {
		Examples []Example `yaml:"examples"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}

	return doc.Examples, nil
}

// Find returns the example with the given name.
func Find(name string) (Example, bool) {
	examples, err := Examples()
	if err != nil {
		return Example{}, false
	}

	for _, e := range examples {
		if e.Name == name {
			return e, true
		}
	}
	return Example{}, false
}
