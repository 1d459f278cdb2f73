package pipeline

import (
	"context"
	"reflect"
	"sort"
	"time"
)

type sortStage struct {
	field string
	dir   Direction
}

func (s sortStage) run(_ context.Context, in []Record) ([]Record, error) {
	out := make([]Record, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		cmp, ok := compareValues(out[i][s.field], out[j][s.field])
		if !ok {
			return false
		}
		if s.dir == Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	return out, nil
}

// equalValues compares two field values for match/join/membership purposes.
// Named string types (identifiers) compare equal to their underlying strings,
// and numeric widths are normalized.
func equalValues(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values, reporting false when they are not
// comparable. Missing and Absent values sort before everything else.
func compareValues(a, b any) (int, bool) {
	aAbsent := a == nil || IsAbsent(a)
	bAbsent := b == nil || IsAbsent(b)
	switch {
	case aAbsent && bAbsent:
		return 0, true
	case aAbsent:
		return -1, true
	case bAbsent:
		return 1, true
	}

	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)

	switch {
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return compareOrdered(av.String(), bv.String()), true
	case av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool:
		ab, bb := av.Bool(), bv.Bool()
		switch {
		case ab == bb:
			return 0, true
		case bb:
			return -1, true
		default:
			return 1, true
		}
	case isNumeric(av.Kind()) && isNumeric(bv.Kind()):
		return compareOrdered(numericValue(av), numericValue(bv)), true
	}

	return 0, false
}

func compareOrdered[T interface{ ~string | ~float64 }](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
