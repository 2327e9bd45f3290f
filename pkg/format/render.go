// Package format classifies loosely typed record values and renders them to
// stable display strings.
package format

import (
	"math"
	"math/big"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// Placeholder is rendered for every missing value
	Placeholder = "—"

	// DateLayout renders dates as DD/MM/YYYY
	DateLayout = "02/01/2006"
)

// numberLocale groups thousands with "." and separates decimals with ","
var numberLocale = language.German

const (
	thousandsSep = '.'
	decimalSep   = ','
)

// Field is one rendered field of a record
type Field struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Render returns the display string of a value. It never fails.
func Render(v Value) string {
	switch v.Kind {
	case KindDate:
		if v.Date.IsZero() {
			return Placeholder
		}
		return v.Date.Format(DateLayout)
	case KindNumber:
		if v.Decimal != "" {
			if s, ok := RenderDecimal(v.Decimal); ok {
				return s
			}
		}
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return Placeholder
		}
		return RenderNumber(v.Number)
	case KindText:
		return v.Text
	default:
		return Placeholder
	}
}

// RenderNumber formats f with two fractional digits, e.g. 26132 -> "26.132,00"
func RenderNumber(f float64) string {
	p := message.NewPrinter(numberLocale)
	return p.Sprint(number.Decimal(f, number.Scale(2)))
}

// RenderDecimal formats an exact decimal string like RenderNumber, rounding
// half away from zero to two digits. It reports false if s is not a decimal.
func RenderDecimal(s string) (string, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", false
	}

	fixed := r.FloatString(2)
	neg := strings.HasPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(strings.TrimPrefix(fixed, "-"), ".")
	if strings.Trim(intPart+frac, "0") == "" {
		neg = false
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(thousandsSep)
		}
		b.WriteRune(c)
	}
	b.WriteByte(decimalSep)
	b.WriteString(frac)
	return b.String(), true
}

// RenderAny infers and renders a raw value in one step
func RenderAny(raw any) string {
	return Render(Infer(raw))
}

// RenderRecord renders every field of a record, ordered by field name
func RenderRecord(fields map[string]Value) []Field {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Field, 0, len(names))
	for _, name := range names {
		v := fields[name]
		out = append(out, Field{
			Name:  name,
			Kind:  v.Kind.String(),
			Value: Render(v),
		})
	}
	return out
}
