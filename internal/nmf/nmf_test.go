package nmf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// blockMatrix is the exact rank-2 product of
// W = [1 0; 2 0; 0 1; 0 3] and H = [1 2 0 0; 0 0 3 1].
func blockMatrix() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 2, 0, 0,
		2, 4, 0, 0,
		0, 0, 3, 1,
		0, 0, 9, 3,
	})
}

func TestFactorize(t *testing.T) {
	t.Parallel()

	t.Run("recovers a separable rank-2 matrix", func(t *testing.T) {
		t.Parallel()

		v := blockMatrix()
		res, err := Factorize(v, Config{Rank: 2, MaxIter: 5000, Tolerance: 1e-12, Seed: 7})
		require.NoError(t, err)

		rows, cols := res.W.Dims()
		assert.Equal(t, 4, rows)
		assert.Equal(t, 2, cols)
		rows, cols = res.H.Dims()
		assert.Equal(t, 2, rows)
		assert.Equal(t, 4, cols)

		assert.Less(t, res.Residual/mat.Norm(v, 2), 0.01)
		assertNonNegative(t, res.W)
		assertNonNegative(t, res.H)

		dominant := DominantFeatures(res.H)
		assert.Equal(t, dominant[0], dominant[1])
		assert.Equal(t, dominant[2], dominant[3])
		assert.NotEqual(t, dominant[0], dominant[2])
	})

	t.Run("same seed gives same factors", func(t *testing.T) {
		t.Parallel()

		a, err := Factorize(blockMatrix(), Config{Rank: 2, Seed: 42})
		require.NoError(t, err)
		b, err := Factorize(blockMatrix(), Config{Rank: 2, Seed: 42})
		require.NoError(t, err)

		assert.True(t, mat.Equal(a.W, b.W))
		assert.True(t, mat.Equal(a.H, b.H))
		assert.Equal(t, a.Iterations, b.Iterations)
	})

	t.Run("residual does not increase", func(t *testing.T) {
		t.Parallel()

		v := mat.NewDense(3, 4, []float64{20, 0, 30, 0, 0, 16, 1, 9, 0, 10, 6, 11})
		var last float64
		for i, iters := range []int{1, 5, 25, 125} {
			res, err := Factorize(v, Config{Rank: 2, MaxIter: iters, Tolerance: 1e-15, Seed: 3})
			require.NoError(t, err)
			if i > 0 {
				assert.LessOrEqual(t, res.Residual, last+1e-9)
			}
			last = res.Residual
		}
	})

	t.Run("exact initial factors converge immediately", func(t *testing.T) {
		t.Parallel()

		w0 := mat.NewDense(4, 2, []float64{1, 0, 2, 0, 0, 1, 0, 3})
		h0 := mat.NewDense(2, 4, []float64{1, 2, 0, 0, 0, 0, 3, 1})
		res, err := Factorize(blockMatrix(), Config{Rank: 2, W0: w0, H0: h0})
		require.NoError(t, err)

		assert.True(t, res.Converged)
		assert.Equal(t, 0, res.Iterations)
		assert.InDelta(t, 0, res.Residual, 1e-12)
		assert.True(t, mat.Equal(res.W, w0))
		assert.NotSame(t, w0, res.W)
	})

	t.Run("zero matrix", func(t *testing.T) {
		t.Parallel()

		res, err := Factorize(mat.NewDense(2, 3, nil), Config{Rank: 1})
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Zero(t, res.Residual)
	})
}

func TestFactorize_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		v       mat.Matrix
		cfg     Config
		wantErr error
	}{
		{
			name:    "negative entry",
			v:       mat.NewDense(2, 2, []float64{1, -1, 0, 2}),
			cfg:     Config{Rank: 1},
			wantErr: ErrNegativeEntry,
		},
		{
			name:    "rank zero",
			v:       blockMatrix(),
			cfg:     Config{Rank: 0},
			wantErr: ErrInvalidRank,
		},
		{
			name:    "rank above min dimension",
			v:       mat.NewDense(2, 5, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}),
			cfg:     Config{Rank: 3},
			wantErr: ErrInvalidRank,
		},
		{
			name:    "W0 wrong shape",
			v:       blockMatrix(),
			cfg:     Config{Rank: 2, W0: mat.NewDense(3, 2, nil)},
			wantErr: ErrDimensionMismatch,
		},
		{
			name:    "H0 negative",
			v:       blockMatrix(),
			cfg:     Config{Rank: 1, H0: mat.NewDense(1, 4, []float64{1, 1, -1, 1})},
			wantErr: ErrNegativeEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Factorize(tt.v, tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTopWords(t *testing.T) {
	t.Parallel()

	w := mat.NewDense(4, 2, []float64{
		0.5, 0,
		0.9, 1,
		0.5, 0,
		0, 2,
	})
	words := []string{"bond", "stock", "alpha", "yield"}

	got := TopWords(w, words, 0, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "stock", got[0].Word)
	assert.Equal(t, "alpha", got[1].Word, "ties are ordered by word")

	got = TopWords(w, words, 1, 10)
	require.Len(t, got, 2, "zero weights are skipped")
	assert.Equal(t, "yield", got[0].Word)
	assert.InDelta(t, 2.0, got[0].Weight, 1e-12)

	assert.Nil(t, TopWords(w, words, 2, 3))
	assert.Nil(t, TopWords(w, words, 0, 0))
}

func TestDominantFeatures(t *testing.T) {
	t.Parallel()

	h := mat.NewDense(3, 4, []float64{
		0.1, 0.5, 0, 0,
		0.7, 0.5, 0, 0,
		0.2, 0.1, 0, 3,
	})
	assert.Equal(t, []int{1, 0, -1, 2}, DominantFeatures(h))
}

func TestMemberships(t *testing.T) {
	t.Parallel()

	h := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		3, 2, 0,
	})
	m := Memberships(h)

	assert.InDelta(t, 0.25, m.At(0, 0), 1e-12)
	assert.InDelta(t, 0.75, m.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, m.At(1, 1), 1e-12)
	assert.Zero(t, m.At(0, 2))
	assert.Zero(t, m.At(1, 2))
	assert.InDelta(t, 1.0, h.At(0, 0), 0, "input is not modified")
}

func assertNonNegative(t *testing.T, a mat.Matrix) {
	t.Helper()
	r, c := a.Dims()
	for i := range r {
		for j := range c {
			assert.GreaterOrEqual(t, a.At(i, j), 0.0)
		}
	}
}
