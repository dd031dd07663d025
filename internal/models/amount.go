package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coerce converts an arbitrary payload value into a nonnegative amount.
// Integers pass through, floats truncate toward zero, numeric strings are
// parsed. Anything else, including NaN and infinities, becomes 0. Negative
// results clamp to 0. Coerce never fails.
func Coerce(v any) int64 {
	var f float64
	switch n := v.(type) {
	case int:
		return clamp(int64(n))
	case int32:
		return clamp(int64(n))
	case int64:
		return clamp(n)
	case uint:
		return clampUint(uint64(n))
	case uint32:
		return int64(n)
	case uint64:
		return clampUint(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clamp(i)
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return clamp(i)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Trunc(f))
}

func clampUint(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// AmountFields is the fixed precedence list used to read the billed/paid
// pair out of a payload that may carry legacy aliases. The first key
// present wins, even when its value coerces to 0.
type AmountFields struct {
	Billed []string
	Paid   []string
}

var (
	// TransactionAmounts: billedAmount, then billed, then amount; paidAmount, then paid.
	TransactionAmounts = AmountFields{
		Billed: []string{"billedAmount", "billed", "amount"},
		Paid:   []string{"paidAmount", "paid"},
	}
	// LedgerAmounts is used by court cases and letters.
	LedgerAmounts = AmountFields{
		Billed: []string{"billed", "billedAmount", "amount"},
		Paid:   []string{"paid", "paidAmount"},
	}
)

// Resolve reads the billed/paid pair from payload. The has flags report
// whether any key of the respective list was present.
func (f AmountFields) Resolve(payload map[string]any) (billed, paid int64, hasBilled, hasPaid bool) {
	billed, hasBilled = first(payload, f.Billed)
	paid, hasPaid = first(payload, f.Paid)
	return billed, paid, hasBilled, hasPaid
}

// Keys returns every key that belongs to the amount precedence lists.
func (f AmountFields) Keys() []string {
	keys := make([]string, 0, len(f.Billed)+len(f.Paid))
	keys = append(keys, f.Billed...)
	return append(keys, f.Paid...)
}

func first(payload map[string]any, keys []string) (int64, bool) {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			return Coerce(v), true
		}
	}
	return 0, false
}
