package pipeline

import "strings"

// Expr is a computed-field expression evaluated per record.
type Expr interface {
	eval(rec Record) any
}

// Size yields the length of the sequence stored under field; a missing or
// absent field counts as zero.
func Size(field string) Expr { return sizeExpr{field: field} }

type sizeExpr struct{ field string }

func (e sizeExpr) eval(rec Record) any {
	return len(sequenceOf(rec[e.field]))
}

// Membership yields true when value appears in the sequence addressed by
// path. A path may be a plain field holding scalars, or "seq.sub" to test the
// sub field of each record in the seq sequence.
func Membership(value any, path string) Expr {
	field, sub, _ := strings.Cut(path, ".")
	return membershipExpr{value: value, field: field, sub: sub}
}

type membershipExpr struct {
	value any
	field string
	sub   string
}

func (e membershipExpr) eval(rec Record) any {
	for _, elem := range sequenceOf(rec[e.field]) {
		candidate := elem
		if e.sub != "" {
			nested, ok := elem.(Record)
			if !ok {
				continue
			}
			candidate = nested[e.sub]
		}
		if equalValues(candidate, e.value) {
			return true
		}
	}
	return false
}

// First yields the first element of the sequence stored under field, or
// Absent when the sequence is empty or missing.
func First(field string) Expr { return firstExpr{field: field} }

type firstExpr struct{ field string }

func (e firstExpr) eval(rec Record) any {
	elems := sequenceOf(rec[e.field])
	if len(elems) == 0 {
		return Absent
	}
	return elems[0]
}
