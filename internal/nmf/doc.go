// Package nmf factorizes a non-negative matrix V (m×n) into non-negative
// factors W (m×k) and H (k×n) so that WH approximates V in the Frobenius norm.
//
// For a words × documents count matrix the k columns of W are "features":
// weighted groups of words that tend to occur together. Column j of H gives
// how strongly document j expresses each feature, which is used to assign
// every document to its dominant feature.
//
//	res, err := nmf.Factorize(counts, nmf.Config{Rank: 3, Seed: 1})
//	top := nmf.TopWords(res.W, words, 0, 10)
//	categories := nmf.DominantFeatures(res.H)
package nmf
