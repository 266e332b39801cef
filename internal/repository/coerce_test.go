package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/templui/goalplanner/internal/model"
)

func TestCoerceInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int64", int64(42), 42, true},
		{"float", float64(42), 42, true},
		{"fractional float", 4.5, 0, false},
		{"numeric string", " 42 ", 42, true},
		{"float string", "42.0", 42, true},
		{"json number", json.Number("7"), 7, true},
		{"true", true, 1, true},
		{"false", false, 0, true},
		{"word", "forty-two", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceInt64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceIDFallsBackToHash(t *testing.T) {
	assert.Equal(t, int64(42), coerceID("42"))
	assert.Equal(t, int64(42), coerceID(float64(42)))

	for _, raw := range []any{"abc-def", -5, float64(MaxID) * 4, true, map[string]any{"x": 1}} {
		id := coerceID(raw)
		assert.Positive(t, id)
		assert.LessOrEqual(t, id, MaxID)
		assert.Equal(t, id, coerceID(raw), "hash must be stable")
	}
	assert.NotEqual(t, coerceID("abc"), coerceID("abd"))
}

func TestCoerceString(t *testing.T) {
	s, ok := coerceString(float64(3))
	assert.True(t, ok)
	assert.Equal(t, "3", s)

	s, ok = coerceString(true)
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = coerceString([]any{"x"})
	assert.False(t, ok)
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
		ok   bool
	}{
		{true, true, true},
		{"true", true, true},
		{"FALSE", false, true},
		{"1", true, true},
		{float64(0), false, true},
		{float64(1), true, true},
		{int64(3), true, true},
		{"maybe", false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		got, ok := coerceBool(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestCoerceDate(t *testing.T) {
	want := model.Date{Year: 2025, Month: time.June, Day: 1}

	d, ok := coerceDate("2025-06-01")
	assert.True(t, ok)
	assert.Equal(t, want, d)

	d, ok = coerceDate("2025-06-01T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, want, d)

	d, ok = coerceDate(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, want, d)

	d, ok = coerceDate(float64(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()))
	assert.True(t, ok)
	assert.Equal(t, want, d)

	_, ok = coerceDate("soon")
	assert.False(t, ok)
	_, ok = coerceDate("")
	assert.False(t, ok)
}

func TestCoerceTime(t *testing.T) {
	ts := time.Date(2025, 3, 10, 12, 30, 0, 5, time.UTC)

	got, ok := coerceTime(ts.Format(time.RFC3339Nano))
	assert.True(t, ok)
	assert.True(t, ts.Equal(got))

	_, ok = coerceTime(true)
	assert.False(t, ok)
	_, ok = coerceTime(time.Time{})
	assert.False(t, ok)
}

func TestCoerceListAndMap(t *testing.T) {
	list, ok := coerceList([]map[string]any{{"title": "a"}})
	assert.True(t, ok)
	assert.Len(t, list, 1)

	_, ok = coerceList("nope")
	assert.False(t, ok)

	m, ok := coerceMap(map[string]string{"title": "a"})
	assert.True(t, ok)
	assert.Equal(t, "a", m["title"])

	_, ok = coerceMap(42)
	assert.False(t, ok)
}
