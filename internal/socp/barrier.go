package socp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// newtonTol is the bound on λ²/2 that ends a centering step.
	newtonTol = 1e-10
	// lineSearchAlpha and lineSearchBeta are the backtracking parameters.
	lineSearchAlpha = 0.01
	lineSearchBeta  = 0.5
	// minStep ends centering when backtracking stalls.
	minStep = 1e-14
	// divergenceLimit flags iterates that run away.
	divergenceLimit = 1e12
	// regularization is added to the Hessian diagonal, scaled by its largest entry.
	regularization = 1e-13
)

// errStopped is returned by center when the stop predicate fires.
var errStopped = errors.New("stopped")

// linearForm is a sparse linear function of x.
type linearForm struct {
	idx  []int
	coef []float64
}

func (f linearForm) eval(x []float64) float64 {
	var v float64
	for k, i := range f.idx {
		v += f.coef[k] * x[i]
	}
	return v
}

// with returns a copy of f with an extra term.
func (f linearForm) with(i int, coef float64) linearForm {
	return linearForm{
		idx:  append(append([]int(nil), f.idx...), i),
		coef: append(append([]float64(nil), f.coef...), coef),
	}
}

func sparse(dense []float64) linearForm {
	var f linearForm
	for i, v := range dense {
		if v != 0 {
			f.idx = append(f.idx, i)
			f.coef = append(f.coef, v)
		}
	}
	return f
}

// linIneq is aᵀx − b > 0.
type linIneq struct {
	a linearForm
	b float64
}

// coneIneq is t(x) > ‖s(x)‖₂, where t and s are linear.
type coneIneq struct {
	t linearForm
	s []linearForm
}

// barrier is the problem min cᵀx s.t. strict inequalities, Ex = e in the
// form the path-following method works on.
type barrier struct {
	n     int
	c     []float64
	lins  []linIneq
	cones []coneIneq
	eq    *mat.Dense
	eqRHS []float64
}

// degree is the barrier parameter ϑ: the duality gap on the central path is ϑ/t.
func (b *barrier) degree() float64 {
	return float64(len(b.lins) + 2*len(b.cones))
}

func (b *barrier) numEq() int {
	if b.eq == nil {
		return 0
	}
	r, _ := b.eq.Dims()
	return r
}

// coneValue returns t and q = t² − ‖s‖² at x.
func (c coneIneq) value(x []float64) (t, q float64) {
	t = c.t.eval(x)
	q = t * t
	for _, s := range c.s {
		v := s.eval(x)
		q -= v * v
	}
	return t, q
}

// feasible reports whether x is strictly inside every inequality.
func (b *barrier) feasible(x []float64) bool {
	for _, l := range b.lins {
		if !(l.a.eval(x)-l.b > 0) {
			return false
		}
	}
	for _, c := range b.cones {
		t, q := c.value(x)
		if !(t > 0) || !(q > 0) {
			return false
		}
	}
	return true
}

// value returns t·cᵀx + φ(x), or +Inf outside the domain.
func (b *barrier) value(x []float64, t float64) float64 {
	if !b.feasible(x) {
		return math.Inf(1)
	}
	v := t * floats.Dot(b.c, x)
	for _, l := range b.lins {
		v -= math.Log(l.a.eval(x) - l.b)
	}
	for _, c := range b.cones {
		_, q := c.value(x)
		v -= math.Log(q)
	}
	return v
}

// derivatives returns the gradient and Hessian of t·cᵀx + φ(x).
func (b *barrier) derivatives(x []float64, t float64) ([]float64, *mat.Dense) {
	g := make([]float64, b.n)
	floats.AddScaled(g, t, b.c)
	h := mat.NewDense(b.n, b.n, nil)

	// −log g: ∇ = −a/g, ∇² = aaᵀ/g²
	for _, l := range b.lins {
		s := l.a.eval(x) - l.b
		for k, i := range l.a.idx {
			g[i] -= l.a.coef[k] / s
			for kk, j := range l.a.idx {
				h.Set(i, j, h.At(i, j)+l.a.coef[k]*l.a.coef[kk]/(s*s))
			}
		}
	}

	// −log q with q = t² − ‖s‖²: ∇q = 2t·d − 2Σ sₖ fₖ, ∇²q = 2ddᵀ − 2Σ fₖfₖᵀ,
	// ∇ = −∇q/q, ∇² = −∇²q/q + ∇q∇qᵀ/q².
	for _, c := range b.cones {
		tv, q := c.value(x)
		dq := make([]float64, b.n)
		for k, i := range c.t.idx {
			dq[i] += 2 * tv * c.t.coef[k]
			for kk, j := range c.t.idx {
				h.Set(i, j, h.At(i, j)-2*c.t.coef[k]*c.t.coef[kk]/q)
			}
		}
		for _, s := range c.s {
			sv := s.eval(x)
			for k, i := range s.idx {
				dq[i] -= 2 * sv * s.coef[k]
				for kk, j := range s.idx {
					h.Set(i, j, h.At(i, j)+2*s.coef[k]*s.coef[kk]/q)
				}
			}
		}
		for i, di := range dq {
			if di == 0 {
				continue
			}
			g[i] -= di / q
			for j, dj := range dq {
				if dj != 0 {
					h.Set(i, j, h.At(i, j)+di*dj/(q*q))
				}
			}
		}
	}
	return g, h
}

// newtonStep solves the KKT system [H Eᵀ; E 0][dx; w] = [−g; e − Ex].
func (b *barrier) newtonStep(x, g []float64, h *mat.Dense) ([]float64, error) {
	n, p := b.n, b.numEq()

	maxDiag := 0.0
	for i := range n {
		maxDiag = math.Max(maxDiag, math.Abs(h.At(i, i)))
	}
	delta := regularization * (1 + maxDiag)

	k := mat.NewDense(n+p, n+p, nil)
	rhs := mat.NewVecDense(n+p, nil)
	for i := range n {
		for j := range n {
			k.Set(i, j, h.At(i, j))
		}
		k.Set(i, i, k.At(i, i)+delta)
		rhs.SetVec(i, -g[i])
	}
	for r := range p {
		var ex float64
		for j := range n {
			a := b.eq.At(r, j)
			k.Set(n+r, j, a)
			k.Set(j, n+r, a)
			ex += a * x[j]
		}
		rhs.SetVec(n+r, b.eqRHS[r]-ex)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(k, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, err
		}
	}
	dx := make([]float64, n)
	for i := range n {
		dx[i] = sol.AtVec(i)
	}
	return dx, nil
}

// pathState carries the Newton step budget across centering calls.
type pathState struct {
	steps    int
	maxSteps int
}

// center minimizes t·cᵀx + φ(x) subject to Ex = e from x in place.
func (b *barrier) center(ctx context.Context, x []float64, t float64, st *pathState, stop func([]float64) bool) error {
	trial := make([]float64, b.n)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.steps >= st.maxSteps {
			return ErrMaxIterations
		}

		g, h := b.derivatives(x, t)
		dx, err := b.newtonStep(x, g, h)
		if err != nil {
			return err
		}
		slope := floats.Dot(g, dx)
		if -slope/2 <= newtonTol {
			return nil
		}

		step := 1.0
		for {
			floats.AddScaledTo(trial, x, step, dx)
			if b.feasible(trial) {
				break
			}
			step *= lineSearchBeta
			if step < minStep {
				return nil
			}
		}
		f0 := b.value(x, t)
		for b.value(trial, t) > f0+lineSearchAlpha*step*slope {
			step *= lineSearchBeta
			if step < minStep {
				return nil
			}
			floats.AddScaledTo(trial, x, step, dx)
		}

		copy(x, trial)
		st.steps++

		if floats.Norm(x, math.Inf(1)) > divergenceLimit {
			return ErrUnbounded
		}
		if stop != nil && stop(x) {
			return errStopped
		}
	}
}

// follow runs the barrier method from the strictly feasible x until the
// duality gap bound ϑ/t falls below tol. It returns the final gap bound.
func (b *barrier) follow(ctx context.Context, x []float64, opts Options, st *pathState, stop func([]float64) bool) (float64, error) {
	theta := b.degree()
	t := 1.0
	for {
		if err := b.center(ctx, x, t, st, stop); err != nil {
			return theta / t, err
		}
		if theta/t < opts.Tolerance {
			return theta / t, nil
		}
		t *= opts.Mu
	}
}
