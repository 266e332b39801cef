package repository

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/templui/goalplanner/internal/model"
)

// MaxID is the largest id a goal can have. Ids stay within the range that
// survives a round trip through a float64 JSON number.
const MaxID int64 = 1<<53 - 1

// Document stores may hand back any field as a number, string or boolean
// depending on how it was last written. Each helper coerces one logical type
// and reports false when the value cannot represent it.

func coerceInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		return coerceInt64(t.String())
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// coerceID returns a positive id for raw. Values that are not a positive
// integer in range are hashed so the record is still addressable.
func coerceID(raw any) int64 {
	if _, isBool := raw.(bool); !isBool {
		if n, ok := coerceInt64(raw); ok && n > 0 && n <= MaxID {
			return n
		}
	}
	return hashID(fmt.Sprint(raw))
}

// hashID maps s onto [1, MaxID] with FNV-1a.
func hashID(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	id := int64(h.Sum64() & uint64(MaxID))
	if id == 0 {
		return 1
	}
	return id
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y":
			return true, true
		case "false", "0", "no", "n", "":
			return false, true
		}
		return false, false
	}
	if n, ok := coerceInt64(v); ok {
		return n != 0, true
	}
	if f, ok := v.(float64); ok {
		return f != 0, true
	}
	return false, false
}

// coerceDate accepts a canonical date string, an RFC 3339 timestamp, a
// time.Time or epoch milliseconds.
func coerceDate(v any) (model.Date, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return model.Date{}, false
		}
		if d, err := model.ParseDate(s); err == nil {
			return d, true
		}
	}
	if t, ok := coerceTime(v); ok {
		return model.DateOf(t), true
	}
	return model.Date{}, false
}

func coerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return coerceTime(*t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UTC(), true
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	case bool:
		return time.Time{}, false
	}
	if ms, ok := coerceInt64(v); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

func coerceList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	}
	return nil, false
}

func coerceMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}
