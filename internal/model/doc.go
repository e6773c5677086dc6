// Package model defines the data passed between wordfactor's stages.
//
//   - Document: a fetched page with its extracted text
//   - Run: one categorization run, from URL list to factorization result
//   - Categorization: the features, top words and document assignments
//
// The types live in their own package so that the crawler, pipeline, database
// and report packages can share them without import cycles. They serialize to
// JSON for reports and run history.
package model
