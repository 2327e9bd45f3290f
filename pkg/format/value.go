package format

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind classifies a field value
type Kind int

const (
	KindMissing Kind = iota
	KindDate
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a field value classified once at fetch time
type Value struct {
	Kind   Kind
	Date   time.Time
	Number float64
	// Decimal is the exact form of integer and NUMERIC values; Render prefers it
	Decimal string
	Text    string
}

// Missing returns the "no data" value
func Missing() Value { return Value{Kind: KindMissing} }

// Date wraps a calendar date/time
func Date(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// Number wraps a numeric value
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Integer wraps a signed integer without going through float64
func Integer(n int64) Value {
	return Value{Kind: KindNumber, Number: float64(n), Decimal: strconv.FormatInt(n, 10)}
}

// Unsigned wraps an unsigned integer without going through float64
func Unsigned(n uint64) Value {
	return Value{Kind: KindNumber, Number: float64(n), Decimal: strconv.FormatUint(n, 10)}
}

// Text wraps a free-text value
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// dateLayouts are the full-string layouts accepted for textual dates.
// Slash dates are day-first, matching the rendered form.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

// ParseDate reports whether s is a date string: it must contain a digit and
// parse in full with one of the accepted layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Infer classifies a raw value coming out of a record store.
// Numeric types are never parsed as dates.
func Infer(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Missing()
	case Value:
		return v
	case time.Time:
		if v.IsZero() {
			return Missing()
		}
		return Date(v)
	case *time.Time:
		if v == nil {
			return Missing()
		}
		return Infer(*v)
	case pgtype.Date:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return Missing()
		}
		return Date(v.Time)
	case pgtype.Timestamp:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return Missing()
		}
		return Date(v.Time)
	case pgtype.Timestamptz:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return Missing()
		}
		return Date(v.Time)
	case pgtype.Numeric:
		return inferNumeric(v)
	case float64:
		return numberOrMissing(v)
	case float32:
		return numberOrMissing(float64(v))
	case int:
		return Integer(int64(v))
	case int8:
		return Integer(int64(v))
	case int16:
		return Integer(int64(v))
	case int32:
		return Integer(int64(v))
	case int64:
		return Integer(v)
	case uint:
		return Unsigned(uint64(v))
	case uint8:
		return Unsigned(uint64(v))
	case uint16:
		return Unsigned(uint64(v))
	case uint32:
		return Unsigned(uint64(v))
	case uint64:
		return Unsigned(v)
	case []byte:
		return inferString(string(v))
	case string:
		return inferString(v)
	case fmt.Stringer:
		return inferString(v.String())
	default:
		return Text(fmt.Sprint(v))
	}
}

// InferDate coerces a value of a date-named column: parseable values become
// dates, everything else is missing
func InferDate(raw any) Value {
	v := Infer(raw)
	switch v.Kind {
	case KindDate:
		return v
	case KindText:
		if t, ok := ParseDate(v.Text); ok {
			return Date(t)
		}
	}
	return Missing()
}

func inferString(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Missing()
	}
	if t, ok := ParseDate(s); ok {
		return Date(t)
	}
	return Text(s)
}

// inferNumeric keeps every digit of a NUMERIC. NaN and infinities are missing.
func inferNumeric(n pgtype.Numeric) Value {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return Missing()
	}

	r := new(big.Rat).SetInt(n.Int)
	scale := 0
	if n.Exp > 0 {
		r.Mul(r, new(big.Rat).SetInt(pow10(int64(n.Exp))))
	} else if n.Exp < 0 {
		scale = int(-n.Exp)
		r.Quo(r, new(big.Rat).SetInt(pow10(int64(scale))))
	}

	f, _ := r.Float64()
	return Value{Kind: KindNumber, Number: f, Decimal: r.FloatString(scale)}
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

func numberOrMissing(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Number(f)
}
