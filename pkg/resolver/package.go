package resolver

import (
	"encoding/json"
	"fmt"
	"os"
)

// Package identifies an npm package by name and version.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// IsZero reports whether p is the zero Package.
func (p Package) IsZero() bool {
	return p.Name == "" && p.Version == ""
}

// packageManifest is the subset of package.json the resolver reads.
type packageManifest struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Main    string          `json:"main"`
	Exports json.RawMessage `json:"exports"`
}

func readManifest(path string) (*packageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var m packageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// LoadPackageInfo reads the name and version of a package.json. Both fields
// are required.
func LoadPackageInfo(path string) (Package, error) {
	m, err := readManifest(path)
	if err != nil {
		return Package{}, err
	}
	if m.Name == "" || m.Version == "" {
		return Package{}, fmt.Errorf("%s: name and version are required", path)
	}
	return Package{Name: m.Name, Version: m.Version}, nil
}
