package socp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidProblem is returned for malformed problems.
var ErrInvalidProblem = errors.New("invalid SOCP problem")

// ConeType selects the kind of cone constraint.
type ConeType string

const (
	// QuadraticCone is x[i0] ≥ ‖x[i1..ik]‖₂.
	QuadraticCone ConeType = "quadratic"
	// RotatedCone is 2·x[i0]·x[i1] ≥ ‖x[i2..ik]‖₂² with x[i0], x[i1] ≥ 0.
	RotatedCone ConeType = "rotated"
)

// Cone constrains the variables at Vars to lie in a cone.
type Cone struct {
	Type ConeType `yaml:"type"`
	Vars []int    `yaml:"vars"`
}

// Constraint is a linear row Lower ≤ Coefficients·x ≤ Upper.
// A nil bound is infinite; equal bounds make an equality.
type Constraint struct {
	Name         string    `yaml:"name,omitempty"`
	Coefficients []float64 `yaml:"coefficients"`
	Lower        *float64  `yaml:"lower,omitempty"`
	Upper        *float64  `yaml:"upper,omitempty"`
}

// Problem is a second-order cone program.
type Problem struct {
	Name string `yaml:"name,omitempty"`

	// Variables optionally names the variables for display.
	Variables []string `yaml:"variables,omitempty"`

	// Objective is the cost vector c; its length is the number of variables.
	Objective []float64 `yaml:"objective"`

	// Lower and Upper are variable bounds. Empty means free.
	Lower []float64 `yaml:"lower,omitempty"`
	Upper []float64 `yaml:"upper,omitempty"`

	Constraints []Constraint `yaml:"constraints,omitempty"`
	Cones       []Cone       `yaml:"cones,omitempty"`
}

// NewProblem creates a problem minimizing objectiveᵀx over free variables.
func NewProblem(objective []float64) *Problem {
	return &Problem{Objective: objective}
}

// NumVariables returns the number of variables.
func (p *Problem) NumVariables() int {
	return len(p.Objective)
}

// SetBounds sets lower ≤ x[i] ≤ upper. Use math.Inf for a missing side.
func (p *Problem) SetBounds(i int, lower, upper float64) {
	n := p.NumVariables()
	if p.Lower == nil {
		p.Lower = filled(n, math.Inf(-1))
	}
	if p.Upper == nil {
		p.Upper = filled(n, math.Inf(1))
	}
	p.Lower[i] = lower
	p.Upper[i] = upper
}

// AddConstraint adds the row lower ≤ coefficients·x ≤ upper.
// Infinite bounds are stored as missing.
func (p *Problem) AddConstraint(coefficients []float64, lower, upper float64) {
	c := Constraint{Coefficients: coefficients}
	if !math.IsInf(lower, -1) {
		c.Lower = &lower
	}
	if !math.IsInf(upper, 1) {
		c.Upper = &upper
	}
	p.Constraints = append(p.Constraints, c)
}

// AddCone adds a cone constraint on the given variables.
func (p *Problem) AddCone(typ ConeType, vars ...int) {
	p.Cones = append(p.Cones, Cone{Type: typ, Vars: vars})
}

// VariableName returns the display name of variable i.
func (p *Problem) VariableName(i int) string {
	if i < len(p.Variables) && p.Variables[i] != "" {
		return p.Variables[i]
	}
	return "x[" + strconv.Itoa(i) + "]"
}

// Validate checks dimensions, bounds and cone definitions.
func (p *Problem) Validate() error {
	n := p.NumVariables()
	if n == 0 {
		return fmt.Errorf("%w: objective has no variables", ErrInvalidProblem)
	}
	if err := checkFinite("objective", p.Objective); err != nil {
		return err
	}
	if len(p.Variables) != 0 && len(p.Variables) != n {
		return fmt.Errorf("%w: %d variable names for %d variables", ErrInvalidProblem, len(p.Variables), n)
	}
	for _, b := range []struct {
		name string
		v    []float64
	}{{"lower", p.Lower}, {"upper", p.Upper}} {
		if len(b.v) != 0 && len(b.v) != n {
			return fmt.Errorf("%w: %s bounds have length %d, want %d", ErrInvalidProblem, b.name, len(b.v), n)
		}
		for i, v := range b.v {
			if math.IsNaN(v) {
				return fmt.Errorf("%w: %s bound of %s is NaN", ErrInvalidProblem, b.name, p.VariableName(i))
			}
		}
	}
	for i := range n {
		lo, up := p.bounds(i)
		if lo > up || math.IsInf(lo, 1) || math.IsInf(up, -1) {
			return fmt.Errorf("%w: bounds of %s are [%g, %g]", ErrInvalidProblem, p.VariableName(i), lo, up)
		}
	}

	for r, c := range p.Constraints {
		name := c.Name
		if name == "" {
			name = "row " + strconv.Itoa(r)
		}
		if len(c.Coefficients) != n {
			return fmt.Errorf("%w: %s has %d coefficients, want %d", ErrInvalidProblem, name, len(c.Coefficients), n)
		}
		if err := checkFinite(name, c.Coefficients); err != nil {
			return err
		}
		lo, up := c.bounds()
		if math.IsNaN(lo) || math.IsNaN(up) || lo > up || math.IsInf(lo, 1) || math.IsInf(up, -1) {
			return fmt.Errorf("%w: %s has bounds [%g, %g]", ErrInvalidProblem, name, lo, up)
		}
	}

	for k, cone := range p.Cones {
		minSize := 2
		switch cone.Type {
		case QuadraticCone:
		case RotatedCone:
			minSize = 3
		default:
			return fmt.Errorf("%w: cone %d has unknown type %q", ErrInvalidProblem, k, cone.Type)
		}
		if len(cone.Vars) < minSize {
			return fmt.Errorf("%w: %s cone %d needs at least %d variables, got %d", ErrInvalidProblem, cone.Type, k, minSize, len(cone.Vars))
		}
		seen := make(map[int]bool, len(cone.Vars))
		for _, v := range cone.Vars {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: cone %d refers to variable %d, have %d", ErrInvalidProblem, k, v, n)
			}
			if seen[v] {
				return fmt.Errorf("%w: cone %d repeats variable %d", ErrInvalidProblem, k, v)
			}
			seen[v] = true
		}
	}
	return nil
}

// bounds returns the bounds of variable i with missing sides infinite.
func (p *Problem) bounds(i int) (lower, upper float64) {
	lower, upper = math.Inf(-1), math.Inf(1)
	if len(p.Lower) > 0 {
		lower = p.Lower[i]
	}
	if len(p.Upper) > 0 {
		upper = p.Upper[i]
	}
	return lower, upper
}

func (c Constraint) bounds() (lower, upper float64) {
	lower, upper = math.Inf(-1), math.Inf(1)
	if c.Lower != nil {
		lower = *c.Lower
	}
	if c.Upper != nil {
		upper = *c.Upper
	}
	return lower, upper
}

func checkFinite(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s[%d] = %g", ErrInvalidProblem, name, i, x)
		}
	}
	return nil
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}
