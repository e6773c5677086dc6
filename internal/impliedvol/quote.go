package impliedvol

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidQuote is returned for non-positive or non-finite quote fields.
	ErrInvalidQuote = errors.New("invalid option quote")
	// ErrPriceBelowIntrinsic is returned when the price is at or below the
	// discounted intrinsic value, where no positive volatility fits.
	ErrPriceBelowIntrinsic = errors.New("price is at or below intrinsic value")
	// ErrPriceAboveUpperBound is returned when the price reaches the
	// no-arbitrage upper bound.
	ErrPriceAboveUpperBound = errors.New("price is at or above the no-arbitrage upper bound")
	// ErrNoConvergence is returned when the root finder gives up.
	ErrNoConvergence = errors.New("implied volatility did not converge")
)

// OptionType is a call or a put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts call, put, c and p in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", fmt.Errorf("%w: option type %q", ErrInvalidQuote, s)
	}
}

// Quote is a European option and its observed price.
type Quote struct {
	Type   OptionType `json:"type"`
	Price  float64    `json:"price"`
	Spot   float64    `json:"spot"`
	Strike float64    `json:"strike"`
	// Expiry is the time to expiry in years.
	Expiry float64 `json:"expiry"`
	// Rate is the continuously compounded risk-free rate.
	Rate float64 `json:"rate"`
	// Yield is the continuous dividend yield.
	Yield float64 `json:"yield"`
}

// Validate checks that the contract fields make sense. The price itself is
// checked against the arbitrage bounds by Solve.
func (q Quote) Validate() error {
	if q.Type != Call && q.Type != Put {
		return fmt.Errorf("%w: option type %q", ErrInvalidQuote, q.Type)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"price", q.Price},
		{"spot", q.Spot},
		{"strike", q.Strike},
		{"expiry", q.Expiry},
	} {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidQuote, f.name, f.value)
		}
	}
	if math.IsNaN(q.Rate) || math.IsInf(q.Rate, 0) || math.IsNaN(q.Yield) || math.IsInf(q.Yield, 0) {
		return fmt.Errorf("%w: rate and yield must be finite", ErrInvalidQuote)
	}
	return nil
}

// Bounds returns the no-arbitrage price bounds of the option.
func Bounds(q Quote) (lower, upper float64) {
	fwdSpot := q.Spot * math.Exp(-q.Yield*q.Expiry)
	pvStrike := q.Strike * math.Exp(-q.Rate*q.Expiry)
	if q.Type == Put {
		return math.Max(pvStrike-fwdSpot, 0), pvStrike
	}
	return math.Max(fwdSpot-pvStrike, 0), fwdSpot
}
