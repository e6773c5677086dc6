package impliedvol

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Price returns the Black-Scholes-Merton value of q's contract at
// volatility sigma. The quote's Price field is ignored.
func Price(q Quote, sigma float64) float64 {
	lower, _ := Bounds(q)
	if sigma <= 0 {
		return lower
	}
	d1, d2 := d1d2(q, sigma)
	fwdSpot := q.Spot * math.Exp(-q.Yield*q.Expiry)
	pvStrike := q.Strike * math.Exp(-q.Rate*q.Expiry)
	if q.Type == Put {
		return pvStrike*distuv.UnitNormal.CDF(-d2) - fwdSpot*distuv.UnitNormal.CDF(-d1)
	}
	return fwdSpot*distuv.UnitNormal.CDF(d1) - pvStrike*distuv.UnitNormal.CDF(d2)
}

// Vega returns ∂Price/∂σ, which is the same for calls and puts.
func Vega(q Quote, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	d1, _ := d1d2(q, sigma)
	return q.Spot * math.Exp(-q.Yield*q.Expiry) * distuv.UnitNormal.Prob(d1) * math.Sqrt(q.Expiry)
}

func d1d2(q Quote, sigma float64) (d1, d2 float64) {
	sqrtT := math.Sqrt(q.Expiry)
	d1 = (math.Log(q.Spot/q.Strike) + (q.Rate-q.Yield+0.5*sigma*sigma)*q.Expiry) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}
