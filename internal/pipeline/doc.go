// Package pipeline runs a categorization as a sequence of steps over a
// model.Run: fetch the listed pages, tokenize them, build the count matrix,
// factorize it, derive the categorization, and persist the run.
//
// Each stage is a Step that reads what earlier steps left in the Run and
// adds its own results. Fetching many URLs is done by BatchFetcher with
// bounded concurrency using errgroup.
package pipeline
