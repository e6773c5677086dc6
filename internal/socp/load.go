package socp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProblem decodes and validates a YAML problem.
func LoadProblem(r io.Reader) (*Problem, error) {
	var p Problem
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidProblem)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProblemFile reads a YAML problem from path.
func LoadProblemFile(path string) (*Problem, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open problem file: %w", err)
	}
	defer f.Close()

	p, err := LoadProblem(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}
