// Package impliedvol prices European options with the Black-Scholes-Merton
// formula and inverts it: given an observed option price it finds the
// volatility that reproduces that price.
//
// Solve handles one quote with a safeguarded Newton iteration that falls back
// to bisection inside a bracket. SolveBatch and Surface solve many quotes
// concurrently, and ParseQuotesCSV reads quotes from a CSV file.
package impliedvol
