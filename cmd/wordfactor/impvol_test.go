package main

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wordfactor/internal/impliedvol"
)

func TestImpvolCmd(t *testing.T) {
	t.Parallel()

	t.Run("single call", func(t *testing.T) {
		t.Parallel()
		out, _, err := executeCmd(t, "impvol",
			"--price", "4.7594", "--spot", "42", "--strike", "40", "--expiry", "0.5", "--rate", "0.1")
		require.NoError(t, err)
		assert.Contains(t, out, "VOL")
		assert.Regexp(t, `0\.(1999|2000)\d\d`, out)
	})

	t.Run("single put as json", func(t *testing.T) {
		t.Parallel()
		out, _, err := executeCmd(t, "impvol", "--put", "--json",
			"--price", "0.8086", "--spot", "42", "--strike", "40", "--expiry", "0.5", "--rate", "0.1")
		require.NoError(t, err)

		var rows []struct {
			Quote      impliedvol.Quote `json:"quote"`
			Volatility float64          `json:"volatility"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
		require.Len(t, rows, 1)
		assert.Equal(t, impliedvol.Put, rows[0].Quote.Type)
		assert.InDelta(t, 0.2, rows[0].Volatility, 1e-3)
	})

	t.Run("price below intrinsic", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "impvol",
			"--price", "1", "--spot", "42", "--strike", "30", "--expiry", "0.5")
		require.ErrorIs(t, err, impliedvol.ErrPriceBelowIntrinsic)
	})

	t.Run("missing quote flags", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "impvol", "--price", "1", "--spot", "42")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--strike is required")
	})

	t.Run("csv batch", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "quotes.csv")
		writeTestFile(t, path, `type,price,spot,strike,expiry,rate
call,4.7594,42,40,0.5,0.1
put,0.8086,42,40,0.5,0.1
call,0.5,42,30,0.5,0.1
`)
		out, stderr, err := executeCmd(t, "impvol", "--csv", path, "--markdown")
		require.NoError(t, err)
		assert.Contains(t, out, "# Implied Volatility")
		assert.Contains(t, stderr, "1 of 3 quotes failed")
	})

	t.Run("surface", func(t *testing.T) {
		t.Parallel()
		spot, rate := 100.0, 0.05
		var sb strings.Builder
		sb.WriteString("type,price,spot,strike,expiry,rate\n")
		for _, k := range []float64{90, 100, 110} {
			for _, e := range []float64{0.5, 1} {
				if k == 110 && e == 1 {
					continue
				}
				q := impliedvol.Quote{Type: impliedvol.Call, Spot: spot, Strike: k, Expiry: e, Rate: rate}
				price := impliedvol.Price(q, 0.2+0.001*(k-100))
				sb.WriteString("call," + strconv.FormatFloat(price, 'g', -1, 64) + ",100," +
					strconv.FormatFloat(k, 'g', -1, 64) + "," + strconv.FormatFloat(e, 'g', -1, 64) + ",0.05\n")
			}
		}
		path := filepath.Join(t.TempDir(), "calls.csv")
		writeTestFile(t, path, sb.String())

		out, _, err := executeCmd(t, "impvol", "--csv", path, "--surface")
		require.NoError(t, err)
		assert.Contains(t, out, "STRIKE")
		assert.Contains(t, out, "0.2100")
		assert.Contains(t, out, "-")
	})

	t.Run("surface requires csv", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "impvol", "--surface")
		require.Error(t, err)
	})
}

func TestSolveSurface(t *testing.T) {
	t.Parallel()

	quote := func(k, e, spot float64) impliedvol.Quote {
		q := impliedvol.Quote{Type: impliedvol.Call, Spot: spot, Strike: k, Expiry: e}
		q.Price = impliedvol.Price(q, 0.3)
		return q
	}

	t.Run("grid from quotes", func(t *testing.T) {
		t.Parallel()
		quotes := []impliedvol.Quote{quote(110, 1, 100), quote(90, 0.5, 100), quote(110, 0.5, 100)}
		quotes = append(quotes, impliedvol.Quote{Type: impliedvol.Put, Price: 1, Spot: 100, Strike: 95, Expiry: 1})

		grid, err := solveSurface(context.Background(), quotes, impliedvol.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []float64{90, 110}, grid.Strikes)
		assert.Equal(t, []float64{0.5, 1}, grid.Expiries)
		assert.InDelta(t, 0.3, grid.At(1, 1), 1e-6)
		assert.True(t, math.IsNaN(grid.At(0, 1)))
	})

	t.Run("mixed spots", func(t *testing.T) {
		t.Parallel()
		quotes := []impliedvol.Quote{quote(100, 1, 100), quote(100, 1, 101)}
		_, err := solveSurface(context.Background(), quotes, impliedvol.DefaultOptions())
		require.ErrorIs(t, err, errMixedUnderlying)
	})

	t.Run("no calls", func(t *testing.T) {
		t.Parallel()
		quotes := []impliedvol.Quote{{Type: impliedvol.Put, Price: 1, Spot: 100, Strike: 95, Expiry: 1}}
		_, err := solveSurface(context.Background(), quotes, impliedvol.DefaultOptions())
		require.Error(t, err)
	})
}
