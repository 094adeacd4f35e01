package venue

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// NeutralPrice is used for a side when no candidate field yields a price.
const NeutralPrice = 0.5

// priceExtractor reads one candidate price field from a venue record.
type priceExtractor[R any] func(rec *R) (float64, bool)

// resolvePrices walks each side's extractors in order and keeps the first
// usable price. A missing side is the complement of the other; if both are
// missing both sides are NeutralPrice.
func resolvePrices[R any](rec *R, yesChain, noChain []priceExtractor[R]) (yes, no float64) {
	yes, yesOK := firstPrice(rec, yesChain)
	no, noOK := firstPrice(rec, noChain)

	switch {
	case yesOK && noOK:
	case yesOK:
		no = 1 - yes
	case noOK:
		yes = 1 - no
	default:
		yes, no = NeutralPrice, NeutralPrice
	}

	return clampPrice(yes), clampPrice(no)
}

func firstPrice[R any](rec *R, chain []priceExtractor[R]) (float64, bool) {
	for _, extract := range chain {
		p, ok := extract(rec)
		if ok && usablePrice(p) {
			return p, true
		}
	}
	return 0, false
}

// usablePrice rejects zero, which venues report for an empty book.
func usablePrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0 && p <= 1
}

func clampPrice(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// decimalPrice parses a probability quoted as a decimal string ("0.56").
func decimalPrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// centsPrice converts an integer-cents quote (56) to a probability.
func centsPrice(v *flexFloat) (float64, bool) {
	if v == nil || !v.set {
		return 0, false
	}
	return v.value / 100, true
}

// numberPrice reads a probability quoted as a bare number.
func numberPrice(v *flexFloat) (float64, bool) {
	if v == nil || !v.set {
		return 0, false
	}
	return v.value, true
}

// flexFloat decodes a JSON number, a numeric string or null.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexFloat{}
		return nil
	}

	if data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexFloat{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat{value: v, set: true}
		return nil
	}

	var v float64
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	*f = flexFloat{value: v, set: true}
	return nil
}

// Float returns the value, or 0 when absent.
func (f flexFloat) Float() float64 {
	if !f.set || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
		return 0
	}
	return f.value
}

// parseOutcomePrices decodes a price list that is either a JSON array or a
// JSON string holding one, as Gamma does for outcomePrices.
func parseOutcomePrices(raw json.RawMessage) []flexFloat {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var inner string
		err := json.Unmarshal(raw, &inner)
		if err != nil {
			return nil
		}
		raw = []byte(inner)
	}

	var prices []flexFloat
	err := json.Unmarshal(raw, &prices)
	if err != nil {
		return nil
	}
	return prices
}
