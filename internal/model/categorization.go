package model

// Categorization is the result of factorizing the count matrix into
// features (word weights) and per-document coefficients.
type Categorization struct {
	// Rank is the number of features.
	Rank int `json:"rank"`

	// Iterations is the number of factorization iterations performed.
	Iterations int `json:"iterations"`

	// Residual is the Frobenius norm of V - WH.
	Residual float64 `json:"residual"`

	// Converged is false when the iteration limit was hit first.
	Converged bool `json:"converged"`

	// Features lists the top words of each feature.
	Features []Feature `json:"features"`

	// Assignments has one entry per matrix column.
	Assignments []Assignment `json:"assignments"`
}

// Feature is one column of W.
type Feature struct {
	Index    int          `json:"index"`
	TopWords []WordWeight `json:"top_words"`
}

// WordWeight is a word and its weight in a feature.
type WordWeight struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Assignment maps a document to its dominant feature.
type Assignment struct {
	Document string `json:"document"`

	// Feature is the index of the dominant feature, or -1 when the
	// document has no surviving words.
	Feature int `json:"feature"`

	// Memberships are the normalized coefficients of the document.
	Memberships []float64 `json:"memberships"`
}

// DocumentsPerFeature counts the documents whose dominant feature is each
// feature index. Unassigned documents are not counted.
func (c *Categorization) DocumentsPerFeature() []int {
	counts := make([]int, c.Rank)
	for _, a := range c.Assignments {
		if a.Feature >= 0 && a.Feature < c.Rank {
			counts[a.Feature]++
		}
	}
	return counts
}

// DocumentsForFeature returns the documents assigned to feature.
func (c *Categorization) DocumentsForFeature(feature int) []string {
	var docs []string
	for _, a := range c.Assignments {
		if a.Feature == feature {
			docs = append(docs, a.Document)
		}
	}
	return docs
}

// Unassigned returns the documents without a dominant feature.
func (c *Categorization) Unassigned() []string {
	return c.DocumentsForFeature(-1)
}
