package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMatchKeepsEqualRecords(t *testing.T) {
	in := []Record{
		{"owner": "u1", "title": "a"},
		{"owner": "u2", "title": "b"},
		{"owner": "u1", "title": "c"},
		{"title": "ownerless"},
	}

	out, err := New(Match("owner", "u1")).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(out) != 2 || out[0]["title"] != "a" || out[1]["title"] != "c" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestMatchAny(t *testing.T) {
	in := []Record{
		{"type": "like"},
		{"type": "subscription"},
		{"type": "view"},
	}

	out, err := New(MatchAny("type", "like", "subscription")).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records got %d", len(out))
	}
}

func TestJoinIsAlwaysLeft(t *testing.T) {
	videos := []Record{
		{"id": "v1", "owner": "u1"},
		{"id": "v2", "owner": "ghost"},
	}
	users := []Record{
		{"id": "u1", "username": "alice", "email": "alice@example.com"},
	}

	out, err := New(
		Join(users, "owner", "id", "author", New(Project("username"))),
	).Run(context.Background(), videos)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	matched, ok := out[0]["author"].([]Record)
	if !ok || len(matched) != 1 {
		t.Fatalf("expected one joined author, got %v", out[0]["author"])
	}
	if matched[0]["username"] != "alice" {
		t.Fatalf("unexpected joined record: %v", matched[0])
	}
	if _, leaked := matched[0]["email"]; leaked {
		t.Fatalf("sub-pipeline projection should have dropped email")
	}

	// The record with no match stays, carrying an empty sequence.
	empty, ok := out[1]["author"].([]Record)
	if !ok || len(empty) != 0 {
		t.Fatalf("expected empty join result, got %v", out[1]["author"])
	}
}

func TestUnwindPreserveEmpty(t *testing.T) {
	in := []Record{
		{"id": "v1", "author": []Record{{"username": "alice"}}},
		{"id": "v2", "author": []Record{}},
	}

	out, err := New(Unwind("author", true)).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected both records kept, got %d", len(out))
	}
	if !IsAbsent(out[1]["author"]) {
		t.Fatalf("expected explicit absent marker, got %v", out[1]["author"])
	}
}

func TestUnwindDropEmpty(t *testing.T) {
	in := []Record{
		{"id": "v1", "video": []Record{{"title": "kept"}}},
		{"id": "v2", "video": []Record{}},
		{"id": "v3"},
	}

	out, err := New(Unwind("video", false)).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(out) != 1 || out[0]["id"] != "v1" {
		t.Fatalf("expected only the matched record, got %v", out)
	}
}

func TestUnwindExpandsElements(t *testing.T) {
	in := []Record{
		{"id": "u1", "edges": []Record{{"subject": "a"}, {"subject": "b"}, {"subject": "c"}}},
	}

	out, err := New(Unwind("edges", false)).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records got %d", len(out))
	}
	for i, want := range []string{"a", "b", "c"} {
		edge, ok := out[i]["edges"].(Record)
		if !ok || edge["subject"] != want {
			t.Fatalf("record %d: unexpected element %v", i, out[i]["edges"])
		}
	}
}

func TestComputeSizeAndMembership(t *testing.T) {
	in := []Record{
		{
			"id":          "channel",
			"subscribers": []Record{{"actor": "u1"}, {"actor": "u2"}},
		},
	}

	out, err := New(Compute(map[string]Expr{
		"subscriberCount": Size("subscribers"),
		"isSubscribed":    Membership("u2", "subscribers.actor"),
		"notSubscribed":   Membership("u9", "subscribers.actor"),
	})).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	rec := out[0]
	if rec["subscriberCount"] != 2 {
		t.Fatalf("expected count 2 got %v", rec["subscriberCount"])
	}
	if rec["isSubscribed"] != true {
		t.Fatalf("expected membership true got %v", rec["isSubscribed"])
	}
	if rec["notSubscribed"] != false {
		t.Fatalf("expected membership false got %v", rec["notSubscribed"])
	}
}

func TestComputeSeesPreStageRecord(t *testing.T) {
	in := []Record{{"items": []Record{{"x": 1}}}}

	out, err := New(Compute(map[string]Expr{
		"count": Size("items"),
		// Evaluates against the input record, where "count" does not exist.
		"countOfCount": Size("count"),
	})).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out[0]["countOfCount"] != 0 {
		t.Fatalf("computed field should not see sibling computed fields, got %v", out[0]["countOfCount"])
	}
}

func TestFirst(t *testing.T) {
	in := []Record{
		{"owner": []Record{{"username": "alice"}, {"username": "bob"}}},
		{"owner": []Record{}},
	}

	out, err := New(Compute(map[string]Expr{"first": First("owner")})).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	first, ok := out[0]["first"].(Record)
	if !ok || first["username"] != "alice" {
		t.Fatalf("expected first element, got %v", out[0]["first"])
	}
	if !IsAbsent(out[1]["first"]) {
		t.Fatalf("expected absent for empty sequence, got %v", out[1]["first"])
	}
}

func TestProjectAndRename(t *testing.T) {
	in := []Record{{"id": "u1", "username": "alice", "email": "alice@example.com"}}

	out, err := New(ProjectAs(map[string]string{"username": "name", "id": "id"})).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	rec := out[0]
	if len(rec) != 2 || rec["name"] != "alice" || rec["id"] != "u1" {
		t.Fatalf("unexpected projection: %v", rec)
	}
}

func TestSortIsStable(t *testing.T) {
	in := []Record{
		{"views": 5, "title": "first"},
		{"views": 9, "title": "top"},
		{"views": 5, "title": "second"},
	}

	out, err := New(Sort("views", Descending)).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	titles := []string{out[0]["title"].(string), out[1]["title"].(string), out[2]["title"].(string)}
	if titles[0] != "top" || titles[1] != "first" || titles[2] != "second" {
		t.Fatalf("unexpected order: %v", titles)
	}
}

func TestSortByTime(t *testing.T) {
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	in := []Record{
		{"createdAt": base.Add(time.Hour), "id": "newer"},
		{"createdAt": base, "id": "older"},
	}

	out, err := New(Sort("createdAt", Ascending)).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out[0]["id"] != "older" || out[1]["id"] != "newer" {
		t.Fatalf("unexpected time order: %v", out)
	}
}

func TestSkipLimitWindows(t *testing.T) {
	var in []Record
	for i := 0; i < 25; i++ {
		in = append(in, Record{"n": i})
	}

	cases := []struct {
		name string
		skip int
		want int
	}{
		{"fullPage", 0, 10},
		{"secondFullPage", 10, 10},
		{"partialFinalPage", 20, 5},
		{"pastTheEnd", 30, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := New(Skip(tc.skip), Limit(10)).Run(context.Background(), in)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(out) != tc.want {
				t.Fatalf("expected %d records got %d", tc.want, len(out))
			}
			if tc.want > 0 && out[0]["n"] != tc.skip {
				t.Fatalf("window starts at %v, expected %d", out[0]["n"], tc.skip)
			}
		})
	}
}

func TestCount(t *testing.T) {
	in := []Record{{"a": 1}, {"a": 2}, {"a": 3}}

	out, err := New(Count("total")).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 1 || out[0]["total"] != 3 {
		t.Fatalf("unexpected count output: %v", out)
	}
}

func TestFacetSharesOneSnapshot(t *testing.T) {
	var in []Record
	for i := 0; i < 12; i++ {
		in = append(in, Record{"n": i})
	}

	out, err := New(Facet(map[string]*Pipeline{
		"items": New(Skip(10), Limit(10)),
		"total": New(Count("n")),
	})).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected single facet record got %d", len(out))
	}

	items, ok := out[0]["items"].([]Record)
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected items facet: %v", out[0]["items"])
	}

	total, ok := out[0]["total"].([]Record)
	if !ok || len(total) != 1 || total[0]["n"] != 12 {
		t.Fatalf("unexpected total facet: %v", out[0]["total"])
	}
}

func TestRunOverEmptyInput(t *testing.T) {
	out, err := New(Match("x", 1), Sort("x", Ascending), Limit(10)).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", out)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Match("x", 1)).Run(ctx, []Record{{"x": 1}})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestStagesDoNotMutateInput(t *testing.T) {
	in := []Record{{"id": "v1", "owner": "u1"}}
	users := []Record{{"id": "u1", "username": "alice"}}

	_, err := New(
		Join(users, "owner", "id", "author", nil),
		Compute(map[string]Expr{"authorCount": Size("author")}),
		ProjectAs(map[string]string{"authorCount": "count"}),
	).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(in[0]) != 2 {
		t.Fatalf("input record was mutated: %v", in[0])
	}
	if _, ok := in[0]["author"]; ok {
		t.Fatalf("join leaked into input record")
	}
}

func TestStageErrorsNameTheStage(t *testing.T) {
	failing := New(Facet(map[string]*Pipeline{
		"bad": New(stageFunc(func(context.Context, []Record) ([]Record, error) {
			return nil, fmt.Errorf("boom")
		})),
	}))

	_, err := failing.Run(context.Background(), []Record{{}})
	if err == nil {
		t.Fatalf("expected error from failing sub-pipeline")
	}
}

type stageFunc func(ctx context.Context, in []Record) ([]Record, error)

func (f stageFunc) run(ctx context.Context, in []Record) ([]Record, error) { return f(ctx, in) }
