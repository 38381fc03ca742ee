// Package anchor loads the static anchor table that wires free text to
// identity axes. Anchors are read-only once loaded.
package anchor

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed anchors.yaml
var defaultTable []byte

var ErrNoAnchors = errors.New("anchor table is empty")

type table struct {
	Anchors []domain.Anchor `yaml:"anchors"`
}

// Parse decodes and validates a YAML anchor table, preserving file order.
func Parse(data []byte) ([]domain.Anchor, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode anchor table: %w", err)
	}
	if len(t.Anchors) == 0 {
		return nil, ErrNoAnchors
	}
	for i, a := range t.Anchors {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("anchor %d (%q): %w", i, a.Phrase, err)
		}
	}
	return t.Anchors, nil
}

// Default returns the built-in anchor table.
func Default() []domain.Anchor {
	anchors, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("built-in anchor table is invalid: %v", err))
	}
	return anchors
}

// Load reads the anchor table at path, or the built-in table when path is empty.
func Load(path string) ([]domain.Anchor, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read anchor table: %w", err)
	}
	return Parse(data)
}
