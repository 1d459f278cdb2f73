// Package pipeline is a small composable query engine evaluated over
// in-memory snapshots of store records. A pipeline is an ordered list of pure
// stages (match, join, unwind, computed fields, project, sort, window, facet);
// it owns no state and never mutates its input, so evaluation can always be
// abandoned safely when the caller's context is cancelled.
package pipeline

import (
	"context"
	"fmt"
)

// Record is a single pipeline row. Values are scalars, sequences of Records,
// or the Absent marker.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type absentMarker struct{}

// Absent marks a field a stage resolved to no value, distinct from the field
// being missing entirely and from an empty sequence.
var Absent = absentMarker{}

// IsAbsent reports whether v is the explicit absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(absentMarker)
	return ok
}

// Stage transforms one sequence of records into another.
type Stage interface {
	run(ctx context.Context, in []Record) ([]Record, error)
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	stages []Stage
}

// New constructs a pipeline from the given stages, evaluated in order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run evaluates the pipeline over the input snapshot. A run over zero input
// records is legitimate and produces an empty, non-nil result. Cancellation is
// checked between stages; an aborted run has no side effects.
func (p *Pipeline) Run(ctx context.Context, in []Record) ([]Record, error) {
	out := in
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		out, err = stage.run(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// Match keeps records whose field equals value.
func Match(field string, value any) Stage {
	return matchStage{field: field, values: []any{value}}
}

// MatchAny keeps records whose field equals any of the provided values.
func MatchAny(field string, values ...any) Stage {
	return matchStage{field: field, values: values}
}

type matchStage struct {
	field  string
	values []any
}

func (m matchStage) run(_ context.Context, in []Record) ([]Record, error) {
	var out []Record
	for _, rec := range in {
		got, ok := rec[m.field]
		if !ok {
			continue
		}
		for _, want := range m.values {
			if equalValues(got, want) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

// Join attaches, under the field named as, the foreign records whose
// foreignField equals each record's localField. It is always a left join: a
// record with no matches keeps an empty sequence rather than being dropped.
// An optional sub-pipeline shapes the matched records before attachment.
func Join(foreign []Record, localField, foreignField, as string, sub *Pipeline) Stage {
	return joinStage{foreign: foreign, localField: localField, foreignField: foreignField, as: as, sub: sub}
}

type joinStage struct {
	foreign      []Record
	localField   string
	foreignField string
	as           string
	sub          *Pipeline
}

func (j joinStage) run(ctx context.Context, in []Record) ([]Record, error) {
	out := make([]Record, 0, len(in))
	for _, rec := range in {
		matches := []Record{}
		local, ok := rec[j.localField]
		if ok {
			for _, f := range j.foreign {
				if equalValues(f[j.foreignField], local) {
					matches = append(matches, f)
				}
			}
		}

		if j.sub != nil {
			shaped, err := j.sub.Run(ctx, matches)
			if err != nil {
				return nil, fmt.Errorf("join %q sub-pipeline: %w", j.as, err)
			}
			matches = shaped
		}

		next := rec.Clone()
		next[j.as] = matches
		out = append(out, next)
	}
	return out, nil
}

// Unwind expands a record holding a sequence field into one record per
// element. When the sequence is empty or missing, preserveEmpty emits a single
// record with the field set to Absent; otherwise the record is dropped.
func Unwind(field string, preserveEmpty bool) Stage {
	return unwindStage{field: field, preserveEmpty: preserveEmpty}
}

type unwindStage struct {
	field         string
	preserveEmpty bool
}

func (u unwindStage) run(_ context.Context, in []Record) ([]Record, error) {
	var out []Record
	for _, rec := range in {
		elems := sequenceOf(rec[u.field])
		if len(elems) == 0 {
			if u.preserveEmpty {
				next := rec.Clone()
				next[u.field] = Absent
				out = append(out, next)
			}
			continue
		}
		for _, elem := range elems {
			next := rec.Clone()
			next[u.field] = elem
			out = append(out, next)
		}
	}
	return out, nil
}

// Compute adds derived fields to every record. Expressions evaluate against
// the record as it stood before this stage, so computed fields cannot see each
// other.
func Compute(fields map[string]Expr) Stage {
	return computeStage{fields: fields}
}

type computeStage struct {
	fields map[string]Expr
}

func (c computeStage) run(_ context.Context, in []Record) ([]Record, error) {
	out := make([]Record, 0, len(in))
	for _, rec := range in {
		next := rec.Clone()
		for name, expr := range c.fields {
			next[name] = expr.eval(rec)
		}
		out = append(out, next)
	}
	return out, nil
}

// Project keeps only the listed fields.
func Project(fields ...string) Stage {
	rename := make(map[string]string, len(fields))
	for _, f := range fields {
		rename[f] = f
	}
	return projectStage{rename: rename}
}

// ProjectAs keeps only the source fields named as keys, renaming each to the
// mapped name.
func ProjectAs(rename map[string]string) Stage {
	return projectStage{rename: rename}
}

type projectStage struct {
	rename map[string]string
}

func (p projectStage) run(_ context.Context, in []Record) ([]Record, error) {
	out := make([]Record, 0, len(in))
	for _, rec := range in {
		next := make(Record, len(p.rename))
		for src, dst := range p.rename {
			if v, ok := rec[src]; ok {
				next[dst] = v
			}
		}
		out = append(out, next)
	}
	return out, nil
}

// Direction orders a sort stage.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Sort orders records by the named field. The sort is stable: ties keep their
// input order.
func Sort(field string, dir Direction) Stage {
	return sortStage{field: field, dir: dir}
}

// Skip drops the first n records.
func Skip(n int) Stage { return skipStage{n: n} }

type skipStage struct{ n int }

func (s skipStage) run(_ context.Context, in []Record) ([]Record, error) {
	if s.n <= 0 {
		return in, nil
	}
	if s.n >= len(in) {
		return []Record{}, nil
	}
	return in[s.n:], nil
}

// Limit keeps at most n records.
func Limit(n int) Stage { return limitStage{n: n} }

type limitStage struct{ n int }

func (l limitStage) run(_ context.Context, in []Record) ([]Record, error) {
	if l.n < 0 {
		return in, nil
	}
	if l.n >= len(in) {
		return in, nil
	}
	return in[:l.n], nil
}

// Count replaces the input with a single record holding the input length
// under the field named as.
func Count(as string) Stage { return countStage{as: as} }

type countStage struct{ as string }

func (c countStage) run(_ context.Context, in []Record) ([]Record, error) {
	return []Record{{c.as: len(in)}}, nil
}

// Facet runs each named sub-pipeline over the same input snapshot and returns
// a single record bundling every sub-pipeline's full output under its name.
// Used to compute a page of results and the total count in one pass.
func Facet(pipelines map[string]*Pipeline) Stage {
	return facetStage{pipelines: pipelines}
}

type facetStage struct {
	pipelines map[string]*Pipeline
}

func (f facetStage) run(ctx context.Context, in []Record) ([]Record, error) {
	out := make(Record, len(f.pipelines))
	for name, sub := range f.pipelines {
		result, err := sub.Run(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		out[name] = result
	}
	return []Record{out}, nil
}

// sequenceOf normalizes a record field into a slice of elements. Absent,
// missing, and unrecognized values yield nil.
func sequenceOf(v any) []any {
	switch seq := v.(type) {
	case []Record:
		out := make([]any, len(seq))
		for i, r := range seq {
			out[i] = r
		}
		return out
	case []any:
		return seq
	default:
		return nil
	}
}
