package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/impliedvol"
	"github.com/nao1215/wordfactor/internal/report"
)

// errMixedUnderlying is returned by --surface when the quotes do not share
// one spot, rate and yield.
var errMixedUnderlying = errors.New("surface quotes must share spot, rate and yield")

// NewImpvolCmd creates the impvol command.
func NewImpvolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impvol",
		Short: "Compute Black-Scholes implied volatilities",
		Long: `Impvol finds the volatility at which the Black-Scholes price of a European
option equals its observed price.

A single quote is given with flags. A batch is read from a CSV file with the
columns type, price, spot, strike, expiry and optionally rate and yield
(expiry in years, rates continuously compounded). With --surface the call
quotes of the file are solved on a strike × expiry grid.

Examples:
  # One call
  wordfactor impvol --price 4.76 --spot 42 --strike 40 --expiry 0.5 --rate 0.1

  # One put
  wordfactor impvol --put --price 0.81 --spot 42 --strike 40 --expiry 0.5 --rate 0.1

  # A batch of quotes
  wordfactor impvol --csv quotes.csv --json

  # A volatility surface
  wordfactor impvol --csv calls.csv --surface`,
		Args: cobra.NoArgs,
		RunE: runImpvolCmd,
	}

	// Single quote flags
	cmd.Flags().Float64("price", 0, "Observed option price")
	cmd.Flags().Float64("spot", 0, "Spot price of the underlying")
	cmd.Flags().Float64("strike", 0, "Strike price")
	cmd.Flags().Float64("expiry", 0, "Time to expiry in years")
	cmd.Flags().Float64("rate", 0, "Risk-free rate, continuously compounded")
	cmd.Flags().Float64("yield", 0, "Dividend yield, continuously compounded")
	cmd.Flags().Bool("put", false, "Quote is a put (default: call)")

	// Batch flags
	cmd.Flags().String("csv", "", "CSV file of quotes")
	cmd.Flags().Bool("surface", false, "Solve the CSV call quotes on a strike × expiry grid")
	cmd.Flags().IntP("concurrency", "b", impliedvol.DefaultConcurrency,
		"Number of quotes solved at the same time")

	// Solver flags
	cmd.Flags().Float64("tol", impliedvol.DefaultTolerance, "Price tolerance")
	cmd.Flags().Int("max-iter", impliedvol.DefaultMaxIter, "Maximum number of root-finder iterations")

	addFormatFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("csv", "price")

	return cmd
}

// runImpvolCmd executes the impvol command.
func runImpvolCmd(cmd *cobra.Command, _ []string) error {
	opts := impliedvol.DefaultOptions()
	var err error
	opts.Tolerance, err = cmd.Flags().GetFloat64("tol")
	if err != nil {
		return err
	}
	opts.MaxIter, err = cmd.Flags().GetInt("max-iter")
	if err != nil {
		return err
	}
	format, err := getFormat(cmd)
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	csvPath, err := cmd.Flags().GetString("csv")
	if err != nil {
		return err
	}
	surface, err := cmd.Flags().GetBool("surface")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if surface && csvPath == "" {
		return errors.New("--surface requires --csv")
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	var quotes []impliedvol.Quote
	if csvPath != "" {
		quotes, err = readQuotes(csvPath)
	} else {
		var q impliedvol.Quote
		q, err = quoteFromFlags(cmd)
		quotes = []impliedvol.Quote{q}
	}
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // idempotent; the explicit close reports the error

	if surface {
		grid, err := solveSurface(ctx, quotes, opts)
		if err != nil {
			return err
		}
		if err := report.WriteVolSurface(out, format, grid); err != nil {
			return fmt.Errorf("failed to write surface: %w", err)
		}
		return closeOut()
	}

	logger.Debug("solving quotes", "count", len(quotes), "concurrency", concurrency)
	results := impliedvol.SolveBatch(ctx, quotes, opts, concurrency)
	if err := report.WriteImpliedVol(out, format, results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	switch {
	case len(results) == 1 && failed == 1:
		return results[0].Err
	case failed == len(results):
		return fmt.Errorf("all %d quotes failed", failed)
	case failed > 0:
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d quotes failed\n", failed, len(results))
	}
	return nil
}

// quoteFromFlags builds a single quote from the command flags.
func quoteFromFlags(cmd *cobra.Command) (impliedvol.Quote, error) {
	var q impliedvol.Quote
	fields := []struct {
		name string
		dst  *float64
	}{
		{"price", &q.Price},
		{"spot", &q.Spot},
		{"strike", &q.Strike},
		{"expiry", &q.Expiry},
		{"rate", &q.Rate},
		{"yield", &q.Yield},
	}
	for _, f := range fields {
		v, err := cmd.Flags().GetFloat64(f.name)
		if err != nil {
			return q, err
		}
		*f.dst = v
	}
	for _, name := range []string{"price", "spot", "strike", "expiry"} {
		if !cmd.Flags().Changed(name) {
			return q, fmt.Errorf("--%s is required without --csv", name)
		}
	}

	put, err := cmd.Flags().GetBool("put")
	if err != nil {
		return q, err
	}
	q.Type = impliedvol.Call
	if put {
		q.Type = impliedvol.Put
	}
	return q, nil
}

// readQuotes parses the CSV file at path.
func readQuotes(path string) ([]impliedvol.Quote, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open quotes: %w", err)
	}
	defer f.Close()

	quotes, err := impliedvol.ParseQuotesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s: no quotes", path)
	}
	return quotes, nil
}

type gridPoint struct {
	strike, expiry float64
}

// solveSurface solves the call quotes on the grid of their distinct strikes
// and expiries. Puts are skipped.
func solveSurface(ctx context.Context, quotes []impliedvol.Quote, opts impliedvol.Options) (*impliedvol.Grid, error) {
	prices := make(map[gridPoint]float64)
	var strikes, expiries []float64
	var base *impliedvol.Quote
	for i := range quotes {
		q := &quotes[i]
		if q.Type != impliedvol.Call {
			continue
		}
		if base == nil {
			base = q
		} else if q.Spot != base.Spot || q.Rate != base.Rate || q.Yield != base.Yield {
			return nil, fmt.Errorf("%w: strike %g expiry %g", errMixedUnderlying, q.Strike, q.Expiry)
		}
		prices[gridPoint{q.Strike, q.Expiry}] = q.Price
		strikes = append(strikes, q.Strike)
		expiries = append(expiries, q.Expiry)
	}
	if base == nil {
		return nil, errors.New("no call quotes for the surface")
	}

	slices.Sort(strikes)
	slices.Sort(expiries)
	strikes = slices.Compact(strikes)
	expiries = slices.Compact(expiries)

	priceFn := func(_ impliedvol.OptionType, strike, expiry float64) (float64, bool) {
		p, ok := prices[gridPoint{strike, expiry}]
		return p, ok
	}
	return impliedvol.Surface(ctx, base.Spot, base.Rate, base.Yield, strikes, expiries, priceFn, opts)
}
