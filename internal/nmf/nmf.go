package nmf

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMaxIter is the iteration limit used when Config.MaxIter is zero.
	DefaultMaxIter = 200
	// DefaultTolerance is used when Config.Tolerance is zero.
	DefaultTolerance = 1e-4

	// epsilon keeps the update denominators away from zero.
	epsilon = 1e-12
)

var (
	// ErrNegativeEntry is returned when V, W0 or H0 has a negative or NaN entry.
	ErrNegativeEntry = errors.New("matrix has a negative entry")
	// ErrInvalidRank is returned when the rank is outside [1, min(m, n)].
	ErrInvalidRank = errors.New("invalid factorization rank")
	// ErrDimensionMismatch is returned when W0 or H0 has the wrong shape.
	ErrDimensionMismatch = errors.New("initial factor has wrong dimensions")
	// ErrEmptyMatrix is returned for a matrix without rows or columns.
	ErrEmptyMatrix = errors.New("matrix is empty")
)

// Config controls the factorization.
type Config struct {
	// Rank is the number of features k.
	Rank int

	// MaxIter limits the number of update iterations.
	MaxIter int

	// Tolerance stops the iteration once the relative change of the
	// residual between two iterations falls below it.
	Tolerance float64

	// Seed seeds the random initial factors.
	Seed uint64

	// W0 and H0 replace the random initial factors when set.
	W0, H0 mat.Matrix
}

// Result holds the factors and convergence information.
type Result struct {
	W *mat.Dense
	H *mat.Dense

	// Iterations is the number of update iterations performed.
	Iterations int

	// Residual is the Frobenius norm of V - WH.
	Residual float64

	// Converged is false when MaxIter was reached first.
	Converged bool
}

// Factorize computes W and H with Lee-Seung multiplicative updates.
func Factorize(v mat.Matrix, cfg Config) (*Result, error) {
	m, n := v.Dims()
	if m == 0 || n == 0 {
		return nil, ErrEmptyMatrix
	}
	if err := checkNonNegative("V", v); err != nil {
		return nil, err
	}
	k := cfg.Rank
	if k < 1 || k > min(m, n) {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidRank, k, min(m, n))
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}

	w, h, err := initialFactors(v, cfg)
	if err != nil {
		return nil, err
	}

	var (
		wtv  = mat.NewDense(k, n, nil)
		wtw  = mat.NewDense(k, k, nil)
		wtwh = mat.NewDense(k, n, nil)
		vht  = mat.NewDense(m, k, nil)
		hht  = mat.NewDense(k, k, nil)
		whht = mat.NewDense(m, k, nil)
		wh   = mat.NewDense(m, n, nil)
	)

	res := &Result{W: w, H: h}
	prev := residual(v, w, h, wh)
	if prev == 0 {
		res.Converged = true
		return res, nil
	}

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		// H ← H ∘ (WᵀV) ⊘ (WᵀWH)
		wtv.Mul(w.T(), v)
		wtw.Mul(w.T(), w)
		wtwh.Mul(wtw, h)
		multiplicativeUpdate(h, wtv, wtwh)

		// W ← W ∘ (VHᵀ) ⊘ (WHHᵀ)
		vht.Mul(v, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, hht)
		multiplicativeUpdate(w, vht, whht)

		cur := residual(v, w, h, wh)
		res.Iterations = iter
		res.Residual = cur
		if math.Abs(prev-cur) <= cfg.Tolerance*math.Max(prev, epsilon) {
			res.Converged = true
			break
		}
		prev = cur
	}

	return res, nil
}

// multiplicativeUpdate sets x[i,j] *= num[i,j] / den[i,j].
func multiplicativeUpdate(x, num, den *mat.Dense) {
	r, c := x.Dims()
	for i := range r {
		for j := range c {
			x.Set(i, j, x.At(i, j)*num.At(i, j)/(den.At(i, j)+epsilon))
		}
	}
}

// residual returns ‖V − WH‖_F using wh as scratch space.
func residual(v mat.Matrix, w, h, wh *mat.Dense) float64 {
	wh.Mul(w, h)
	wh.Sub(v, wh)
	return mat.Norm(wh, 2)
}

// initialFactors returns copies of W0 and H0, or seeded random factors
// scaled so that WH has the same mean as V.
func initialFactors(v mat.Matrix, cfg Config) (*mat.Dense, *mat.Dense, error) {
	m, n := v.Dims()
	k := cfg.Rank

	var mean float64
	for i := range m {
		for j := range n {
			mean += v.At(i, j)
		}
	}
	mean /= float64(m * n)
	scale := math.Sqrt(mean / float64(k))
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	w, err := initialFactor("W0", cfg.W0, m, k, scale, rng)
	if err != nil {
		return nil, nil, err
	}
	h, err := initialFactor("H0", cfg.H0, k, n, scale, rng)
	if err != nil {
		return nil, nil, err
	}
	return w, h, nil
}

func initialFactor(name string, given mat.Matrix, rows, cols int, scale float64, rng *rand.Rand) (*mat.Dense, error) {
	if given != nil {
		r, c := given.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("%w: %s is %d×%d, want %d×%d", ErrDimensionMismatch, name, r, c, rows, cols)
		}
		if err := checkNonNegative(name, given); err != nil {
			return nil, err
		}
		return mat.DenseCopyOf(given), nil
	}

	data := make([]float64, rows*cols)
	for i := range data {
		// (0, 1]: a zero entry would never move under multiplicative updates.
		data[i] = scale * (1 - rng.Float64())
	}
	return mat.NewDense(rows, cols, data), nil
}

func checkNonNegative(name string, a mat.Matrix) error {
	r, c := a.Dims()
	for i := range r {
		for j := range c {
			if x := a.At(i, j); x < 0 || math.IsNaN(x) {
				return fmt.Errorf("%w: %s[%d,%d] = %g", ErrNegativeEntry, name, i, j, x)
			}
		}
	}
	return nil
}
