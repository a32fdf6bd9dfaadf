package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// PriceDigits and QuantityDigits are the fractional digits used when a level
	// is written back to the exchange wire format.
	PriceDigits    = 4
	QuantityDigits = 8
)

// PriceLevel is a (price, quantity) pair inside one side of a book.
// Quantity 0 is the delete marker used by depth diffs, it never rests in a book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// IsZero reports whether the level is the zero value returned for empty sides
// and unknown symbols.
func (l PriceLevel) IsZero() bool {
	return l.Price == 0 && l.Quantity == 0
}

// Decimal magnitude bounds around the float64 range (max ~1.8e308, smallest
// subnormal ~4.9e-324). Values outside are resolved without big.Rat, whose
// conversion cost grows with the exponent.
const (
	maxDecimalMagnitude = 310
	minDecimalMagnitude = -330
)

// ParseDecimal parses exchange decimal text such as "0.00915100".
// The text is parsed exactly and rounded once to float64. Values too large for
// float64 are rejected, values too small for it parse as 0.
func ParseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if d.IsZero() {
		return 0, true
	}

	// |d| < 10^mag
	mag := int64(d.Exponent()) + int64(d.NumDigits())
	if mag > maxDecimalMagnitude {
		return 0, false
	}
	if mag < minDecimalMagnitude {
		return 0, true
	}

	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseLevel converts a raw ["price", "quantity"] pair.
// ok is false when the pair is missing, has the wrong arity or either
// element is not a number.
func ParseLevel(raw []string) (PriceLevel, bool) {
	if len(raw) != 2 {
		return PriceLevel{}, false
	}
	price, ok := ParseDecimal(raw[0])
	if !ok {
		return PriceLevel{}, false
	}
	quantity, ok := ParseDecimal(raw[1])
	if !ok {
		return PriceLevel{}, false
	}
	return PriceLevel{Price: price, Quantity: quantity}, true
}

// ToPriceLevels converts a batch of raw pairs, skipping the ones that fail to
// parse. dropped is the number of skipped entries; the caller decides whether
// to count or alert on it.
func ToPriceLevels(raw [][]string) (levels []PriceLevel, dropped int) {
	if raw == nil {
		return nil, 0
	}

	levels = make([]PriceLevel, 0, len(raw))
	for _, r := range raw {
		l, ok := ParseLevel(r)
		if !ok {
			dropped++
			continue
		}
		levels = append(levels, l)
	}
	return levels, dropped
}

// FormatLevel renders a level as ["price", "quantity"] with 4 and 8
// fractional digits. It does not round-trip precision beyond those digits.
func FormatLevel(l PriceLevel) []string {
	return []string{
		formatFixed(l.Price, PriceDigits),
		formatFixed(l.Quantity, QuantityDigits),
	}
}

func formatFixed(f float64, digits int32) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "0"
	}
	return decimal.NewFromFloat(f).StringFixed(digits)
}
