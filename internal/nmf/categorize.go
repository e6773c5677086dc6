package nmf

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// WordWeight is a word and its weight in one feature.
type WordWeight struct {
	Word   string
	Weight float64
}

// TopWords returns the n highest weighted words of column feature of w.
// Words with zero weight are left out and ties are ordered by word.
func TopWords(w mat.Matrix, words []string, feature, n int) []WordWeight {
	rows, cols := w.Dims()
	if n <= 0 || feature < 0 || feature >= cols {
		return nil
	}

	all := make([]WordWeight, 0, rows)
	for i := range min(rows, len(words)) {
		if weight := w.At(i, feature); weight > 0 {
			all = append(all, WordWeight{Word: words[i], Weight: weight})
		}
	}
	slices.SortFunc(all, func(a, b WordWeight) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// DominantFeatures returns, for every column of h, the row with the largest
// coefficient. Ties go to the lower row; an all-zero column gives -1.
func DominantFeatures(h mat.Matrix) []int {
	rows, cols := h.Dims()
	dominant := make([]int, cols)
	for j := range cols {
		best, bestVal := -1, 0.0
		for i := range rows {
			if v := h.At(i, j); v > bestVal {
				best, bestVal = i, v
			}
		}
		dominant[j] = best
	}
	return dominant
}

// Memberships returns h with every column scaled to sum to one.
// Zero columns stay zero.
func Memberships(h mat.Matrix) *mat.Dense {
	rows, cols := h.Dims()
	out := mat.DenseCopyOf(h)
	for j := range cols {
		var sum float64
		for i := range rows {
			sum += out.At(i, j)
		}
		if sum == 0 {
			continue
		}
		for i := range rows {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}
	return out
}
