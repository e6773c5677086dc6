package impliedvol

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvColumns are the recognised header names. rate and yield are optional.
var csvColumns = []string{"type", "price", "spot", "strike", "expiry", "rate", "yield"}

// ParseQuotesCSV reads quotes from CSV with a header row naming the columns
// type, price, spot, strike, expiry, rate and yield in any order. rate and
// yield default to zero when absent. Lines starting with '#' are comments.
func ParseQuotesCSV(r io.Reader) ([]Quote, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", ErrInvalidQuote)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := col[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidQuote, name)
		}
		col[name] = i
	}
	for _, name := range csvColumns[:5] {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidQuote, name)
		}
	}

	var quotes []Quote
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		q, err := quoteFromRecord(record, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func quoteFromRecord(record []string, col map[string]int) (Quote, error) {
	var q Quote
	typ, err := ParseOptionType(record[col["type"]])
	if err != nil {
		return q, err
	}
	q.Type = typ

	fields := map[string]*float64{
		"price":  &q.Price,
		"spot":   &q.Spot,
		"strike": &q.Strike,
		"expiry": &q.Expiry,
		"rate":   &q.Rate,
		"yield":  &q.Yield,
	}
	for _, name := range csvColumns[1:] {
		i, ok := col[name]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(record[i])
		if raw == "" && (name == "rate" || name == "yield") {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("%w: %s %q", ErrInvalidQuote, name, raw)
		}
		*fields[name] = v
	}
	return q, nil
}
