package socp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInfeasible is returned when no point satisfies the constraints strictly.
	ErrInfeasible = errors.New("problem is infeasible")
	// ErrUnbounded is returned when the objective decreases without bound.
	ErrUnbounded = errors.New("problem is unbounded")
	// ErrMaxIterations is returned when the Newton step budget runs out.
	ErrMaxIterations = errors.New("iteration limit reached")
)

const (
	// DefaultTolerance is the default duality gap tolerance.
	DefaultTolerance = 1e-8
	// DefaultMaxIter is the default Newton step budget.
	DefaultMaxIter = 500
	// DefaultMu is the default barrier growth factor.
	DefaultMu = 10.0

	// feasibilityTol is the equality residual accepted for the start point.
	feasibilityTol = 1e-9
)

// Options controls the solver.
type Options struct {
	// Tolerance is the target bound on the duality gap.
	Tolerance float64
	// MaxIter limits the total number of Newton steps, Phase I included.
	MaxIter int
	// Mu is the factor the barrier weight grows by between centerings.
	Mu float64
}

// DefaultOptions returns the default solver options.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, MaxIter: DefaultMaxIter, Mu: DefaultMu}
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Mu <= 1 {
		o.Mu = DefaultMu
	}
	return o
}

// Status describes how the solver finished.
type Status string

const (
	StatusOptimal       Status = "optimal"
	StatusInfeasible    Status = "infeasible"
	StatusUnbounded     Status = "unbounded"
	StatusMaxIterations Status = "max-iterations"
	StatusCancelled     Status = "cancelled"
)

// Solution is the solver output.
type Solution struct {
	X         []float64 `json:"x"`
	Objective float64   `json:"objective"`

	// Iterations is the number of Newton steps taken, Phase I included.
	Iterations int `json:"iterations"`

	// Gap is the duality gap bound at the returned point.
	Gap float64 `json:"gap"`

	Status Status `json:"status"`
}

// Solve minimizes the problem. A Solution is returned with every error
// except invalid input; its Status tells how far the solver got.
func Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	b := newBarrier(p)
	sol := &Solution{Gap: math.Inf(1)}

	x, err := b.equalityPoint()
	if err != nil {
		sol.Status = statusFor(err)
		return sol, err
	}

	if len(b.lins) == 0 && len(b.cones) == 0 {
		return b.solveEqualityOnly(x, sol)
	}

	st := &pathState{maxSteps: opts.MaxIter}
	if !b.feasible(x) {
		x, err = b.phaseOne(ctx, x, opts, st)
		sol.Iterations = st.steps
		if err != nil {
			sol.Status = statusFor(err)
			return sol, err
		}
	}

	gap, err := b.follow(ctx, x, opts, st, nil)
	sol.X = x
	sol.Objective = floats.Dot(p.Objective, x)
	sol.Iterations = st.steps
	sol.Gap = gap
	sol.Status = statusFor(err)
	if err != nil {
		return sol, err
	}
	return sol, nil
}

func statusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOptimal
	case errors.Is(err, ErrUnbounded):
		return StatusUnbounded
	case errors.Is(err, ErrMaxIterations):
		return StatusMaxIterations
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusInfeasible
	}
}

// newBarrier translates the problem into strict inequalities and equalities.
func newBarrier(p *Problem) *barrier {
	n := p.NumVariables()
	b := &barrier{n: n, c: append([]float64(nil), p.Objective...)}

	var eqRows [][]float64
	addEq := func(row []float64, rhs float64) {
		eqRows = append(eqRows, row)
		b.eqRHS = append(b.eqRHS, rhs)
	}

	for i := range n {
		lo, up := p.bounds(i)
		unit := linearForm{idx: []int{i}, coef: []float64{1}}
		switch {
		case lo == up:
			row := make([]float64, n)
			row[i] = 1
			addEq(row, lo)
			continue
		case !math.IsInf(lo, -1):
			b.lins = append(b.lins, linIneq{a: unit, b: lo})
		}
		if !math.IsInf(up, 1) {
			b.lins = append(b.lins, linIneq{a: linearForm{idx: []int{i}, coef: []float64{-1}}, b: -up})
		}
	}

	for _, c := range p.Constraints {
		lo, up := c.bounds()
		if lo == up {
			addEq(append([]float64(nil), c.Coefficients...), lo)
			continue
		}
		a := sparse(c.Coefficients)
		if !math.IsInf(lo, -1) {
			b.lins = append(b.lins, linIneq{a: a, b: lo})
		}
		if !math.IsInf(up, 1) {
			neg := linearForm{idx: a.idx, coef: make([]float64, len(a.coef))}
			for k, v := range a.coef {
				neg.coef[k] = -v
			}
			b.lins = append(b.lins, linIneq{a: neg, b: -up})
		}
	}

	for _, cone := range p.Cones {
		b.cones = append(b.cones, coneFor(cone))
	}

	if len(eqRows) > 0 {
		b.eq = mat.NewDense(len(eqRows), n, nil)
		for r, row := range eqRows {
			b.eq.SetRow(r, row)
		}
	}
	return b
}

// coneFor expresses a cone as t(x) > ‖s(x)‖. The rotated cone
// 2·x1·x2 ≥ ‖u‖² becomes (x1+x2)/√2 ≥ ‖((x1−x2)/√2, u)‖.
func coneFor(c Cone) coneIneq {
	unit := func(i int) linearForm {
		return linearForm{idx: []int{i}, coef: []float64{1}}
	}
	if c.Type == RotatedCone {
		r := 1 / math.Sqrt2
		x1, x2 := c.Vars[0], c.Vars[1]
		ci := coneIneq{
			t: linearForm{idx: []int{x1, x2}, coef: []float64{r, r}},
			s: []linearForm{{idx: []int{x1, x2}, coef: []float64{r, -r}}},
		}
		for _, v := range c.Vars[2:] {
			ci.s = append(ci.s, unit(v))
		}
		return ci
	}
	ci := coneIneq{t: unit(c.Vars[0])}
	for _, v := range c.Vars[1:] {
		ci.s = append(ci.s, unit(v))
	}
	return ci
}

// equalityPoint returns the least-norm solution of Ex = e, or zero when
// there are no equalities.
func (b *barrier) equalityPoint() ([]float64, error) {
	x := make([]float64, b.n)
	if b.eq == nil {
		return x, nil
	}

	var sol mat.VecDense
	rhs := mat.NewVecDense(len(b.eqRHS), append([]float64(nil), b.eqRHS...))
	if err := sol.SolveVec(b.eq, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: equality constraints are linearly dependent", ErrInvalidProblem)
		}
	}
	for i := range x {
		x[i] = sol.AtVec(i)
	}

	var residual mat.VecDense
	residual.MulVec(b.eq, &sol)
	residual.SubVec(&residual, rhs)
	if mat.Norm(&residual, math.Inf(1)) > feasibilityTol*(1+mat.Norm(rhs, math.Inf(1))) {
		return nil, fmt.Errorf("%w: equality constraints are inconsistent", ErrInfeasible)
	}
	return x, nil
}

// solveEqualityOnly handles problems with no inequality: the objective is
// constant on {Ex = e} when c lies in the row space of E and unbounded
// otherwise.
func (b *barrier) solveEqualityOnly(x []float64, sol *Solution) (*Solution, error) {
	sol.X = x
	sol.Objective = floats.Dot(b.c, x)
	sol.Gap = 0

	bounded := floats.Norm(b.c, math.Inf(1)) == 0
	if !bounded && b.eq != nil {
		var y mat.VecDense
		c := mat.NewVecDense(b.n, append([]float64(nil), b.c...))
		err := y.SolveVec(b.eq.T(), c)
		var cond mat.Condition
		if err == nil || (errors.As(err, &cond) && !math.IsInf(float64(cond), 1)) {
			var back mat.VecDense
			back.MulVec(b.eq.T(), &y)
			back.SubVec(&back, c)
			bounded = mat.Norm(&back, math.Inf(1)) <= feasibilityTol*(1+mat.Norm(c, math.Inf(1)))
		}
	}
	if !bounded {
		sol.Status = StatusUnbounded
		return sol, ErrUnbounded
	}
	sol.Status = StatusOptimal
	return sol, nil
}

// phaseOne finds a strictly feasible point by minimizing a slack s that
// relaxes every inequality, over (x, s) with s > −1. It stops as soon as x
// is strictly feasible, whatever the sign of s: with a bound such as x ≥ 0
// the relaxed problem is unbounded in x and s only tends to zero.
func (b *barrier) phaseOne(ctx context.Context, x0 []float64, opts Options, st *pathState) ([]float64, error) {
	n := b.n
	slack := n

	p1 := &barrier{n: n + 1, c: make([]float64, n+1), eqRHS: b.eqRHS}
	p1.c[slack] = 1

	s0 := 0.0
	for _, l := range b.lins {
		p1.lins = append(p1.lins, linIneq{a: l.a.with(slack, 1), b: l.b})
		s0 = math.Max(s0, l.b-l.a.eval(x0))
	}
	for _, c := range b.cones {
		p1.cones = append(p1.cones, coneIneq{t: c.t.with(slack, 1), s: c.s})
		t, _ := c.value(x0)
		var norm float64
		for _, s := range c.s {
			v := s.eval(x0)
			norm += v * v
		}
		s0 = math.Max(s0, math.Sqrt(norm)-t)
	}
	p1.lins = append(p1.lins, linIneq{a: linearForm{idx: []int{slack}, coef: []float64{1}}, b: -1})

	if b.eq != nil {
		rows, _ := b.eq.Dims()
		p1.eq = mat.NewDense(rows, n+1, nil)
		p1.eq.Slice(0, rows, 0, n).(*mat.Dense).Copy(b.eq)
	}

	y := make([]float64, n+1)
	copy(y, x0)
	y[slack] = s0 + 1

	stop := func(y []float64) bool {
		return b.feasible(y[:n])
	}

	opts.Tolerance = math.Min(opts.Tolerance, 1e-6)
	_, err := p1.follow(ctx, y, opts, st, stop)
	switch {
	case errors.Is(err, errStopped):
		return y[:n], nil
	case errors.Is(err, ErrUnbounded):
		return nil, fmt.Errorf("%w: phase I diverged", ErrInfeasible)
	case err != nil:
		return nil, err
	default:
		return nil, fmt.Errorf("%w: smallest constraint violation %.3g", ErrInfeasible, math.Max(y[slack], 0))
	}
}
