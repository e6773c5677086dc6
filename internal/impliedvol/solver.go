package impliedvol

import (
	"fmt"
	"math"
)

const (
	// MinVol and MaxVol bracket the search.
	MinVol = 1e-9
	MaxVol = 10.0

	// DefaultTolerance is the default absolute price tolerance.
	DefaultTolerance = 1e-10
	// DefaultMaxIter is the default iteration limit.
	DefaultMaxIter = 100

	// volTolerance ends the search once the bracket is this narrow.
	volTolerance = 1e-14
)

// Options controls the root finder.
type Options struct {
	// Tolerance is the accepted absolute difference between model and
	// observed price.
	Tolerance float64
	// MaxIter limits the number of Newton or bisection steps.
	MaxIter int
}

// DefaultOptions returns the default root finder options.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, MaxIter: DefaultMaxIter}
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	return o
}

// Solve returns the volatility at which Price(q, σ) equals q.Price.
func Solve(q Quote, opts Options) (float64, error) {
	sigma, _, err := solve(q, opts)
	return sigma, err
}

// solve also returns the number of iterations used.
func solve(q Quote, opts Options) (float64, int, error) {
	if err := q.Validate(); err != nil {
		return 0, 0, err
	}
	opts = opts.withDefaults()

	lower, upper := Bounds(q)
	if q.Price <= lower {
		return 0, 0, fmt.Errorf("%w: price %g, bound %g", ErrPriceBelowIntrinsic, q.Price, lower)
	}
	if q.Price >= upper {
		return 0, 0, fmt.Errorf("%w: price %g, bound %g", ErrPriceAboveUpperBound, q.Price, upper)
	}

	lo, hi := MinVol, MaxVol
	if Price(q, hi) < q.Price {
		return 0, 0, fmt.Errorf("%w: volatility above %g", ErrNoConvergence, MaxVol)
	}

	sigma := initialGuess(q)
	for iter := 1; iter <= opts.MaxIter; iter++ {
		diff := Price(q, sigma) - q.Price
		if math.Abs(diff) <= opts.Tolerance {
			return sigma, iter, nil
		}
		// Price is increasing in σ, so the sign of diff moves one bracket end.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}
		if hi-lo <= volTolerance*math.Max(1, sigma) {
			return sigma, iter, nil
		}

		next := math.NaN()
		if vega := Vega(q, sigma); vega > 1e-300 {
			next = sigma - diff/vega
		}
		if !(next > lo && next < hi) {
			next = 0.5 * (lo + hi)
		}
		sigma = next
	}
	return sigma, opts.MaxIter, fmt.Errorf("%w after %d iterations (last %g)", ErrNoConvergence, opts.MaxIter, sigma)
}

// initialGuess uses Manaster-Koehler away from the money and
// Brenner-Subrahmanyam near it.
func initialGuess(q Quote) float64 {
	forward := q.Spot * math.Exp((q.Rate-q.Yield)*q.Expiry)
	guess := math.Sqrt(2 * math.Abs(math.Log(forward/q.Strike)) / q.Expiry)
	if guess < 0.05 {
		guess = math.Sqrt(2*math.Pi/q.Expiry) * q.Price / (q.Spot * math.Exp(-q.Yield*q.Expiry))
	}
	return math.Min(math.Max(guess, 0.01), 5)
}
