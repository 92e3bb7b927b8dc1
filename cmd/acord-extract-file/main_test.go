package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistry(t *testing.T) {
	reg, err := loadRegistry("")
	if err != nil {
		t.Fatalf("unexpected error for built-in registry: %v", err)
	}
	if reg.Len() == 0 {
		t.Errorf("built-in registry should not be empty")
	}

	registryPath := filepath.Join(t.TempDir(), "fields.yaml")
	registryYAML := `fields:
  - canonical_name: phone
    label_synonyms:
      - Phone
    value_type: phone
`
	if err := os.WriteFile(registryPath, []byte(registryYAML), 0o644); err != nil {
		t.Fatalf("failed to write registry file: %v", err)
	}

	reg, err = loadRegistry(registryPath)
	if err != nil {
		t.Fatalf("unexpected error for registry file: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 field from the override file, got %d", reg.Len())
	}

	if _, err := loadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for a missing registry file")
	}
}
