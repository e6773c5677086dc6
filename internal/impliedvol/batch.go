package impliedvol

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used by SolveBatch when concurrency is not positive.
const DefaultConcurrency = 8

// Result is the outcome of solving one quote.
type Result struct {
	Quote      Quote   `json:"quote"`
	Volatility float64 `json:"volatility"`
	Iterations int     `json:"iterations"`
	Err        error   `json:"-"`
}

// Failed reports whether the quote could not be solved.
func (r Result) Failed() bool {
	return r.Err != nil
}

// SolveBatch solves every quote with at most concurrency workers. Results
// are returned in input order. A failing quote records its error in its
// Result and does not stop the others. Quotes not started before ctx is
// cancelled carry ctx's error.
func SolveBatch(ctx context.Context, quotes []Quote, opts Options, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]Result, len(quotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range quotes {
		results[i].Quote = q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			sigma, iter, err := solve(q, opts)
			results[i].Volatility = sigma
			results[i].Iterations = iter
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return an error

	return results
}

// PriceFunc returns the observed price of an option with the given strike
// and expiry. ok is false when no price is available.
type PriceFunc func(typ OptionType, strike, expiry float64) (price float64, ok bool)

// Grid holds implied volatilities over strikes × expiries.
// Vols[i][j] belongs to Strikes[i] and Expiries[j]. Points with no price or
// no solution are NaN.
type Grid struct {
	Strikes  []float64   `json:"strikes"`
	Expiries []float64   `json:"expiries"`
	Vols     [][]float64 `json:"vols"`
}

// At returns the volatility at strike index i and expiry index j.
func (g *Grid) At(i, j int) float64 {
	return g.Vols[i][j]
}

// Surface solves a grid of call implied volatilities on one underlying.
// priceFn is asked for each strike and expiry pair.
func Surface(ctx context.Context, spot, rate, yield float64, strikes, expiries []float64, priceFn PriceFunc, opts Options) (*Grid, error) {
	grid := &Grid{
		Strikes:  append([]float64(nil), strikes...),
		Expiries: append([]float64(nil), expiries...),
		Vols:     make([][]float64, len(strikes)),
	}

	quotes := make([]Quote, 0, len(strikes)*len(expiries))
	index := make([][2]int, 0, cap(quotes))
	for i, k := range strikes {
		grid.Vols[i] = make([]float64, len(expiries))
		for j, t := range expiries {
			grid.Vols[i][j] = math.NaN()
			price, ok := priceFn(Call, k, t)
			if !ok {
				continue
			}
			quotes = append(quotes, Quote{
				Type: Call, Price: price, Spot: spot, Strike: k,
				Expiry: t, Rate: rate, Yield: yield,
			})
			index = append(index, [2]int{i, j})
		}
	}

	for n, r := range SolveBatch(ctx, quotes, opts, 0) {
		if r.Err == nil {
			grid.Vols[index[n][0]][index[n][1]] = r.Volatility
		}
	}
	if err := ctx.Err(); err != nil {
		return grid, err
	}
	return grid, nil
}
