package placement

import (
	"reflect"
	"testing"
)

func testSubjects() []Subject {
	return []Subject{
		{Key: "thai", MaxScore: 100},
		{Key: "math", MaxScore: 100},
		{Key: "science", MaxScore: 100},
		{Key: "english", MaxScore: 100},
		{Key: "social", MaxScore: 100},
	}
}

func scores(thai, math, science, english, social float64) map[string]float64 {
	return map[string]float64{
		"thai": thai, "math": math, "science": science, "english": english, "social": social,
	}
}

func TestTotalScore(t *testing.T) {
	e := New(testSubjects())
	if got := e.TotalScore(scores(10, 20, 30, 40, 50)); got != 150 {
		t.Fatalf("total = %v, want 150", got)
	}
	// Missing keys count as zero; unknown keys are ignored.
	if got := e.TotalScore(map[string]float64{"math": 55, "art": 99}); got != 55 {
		t.Fatalf("total = %v, want 55", got)
	}
	if got := e.TotalScore(nil); got != 0 {
		t.Fatalf("total = %v, want 0", got)
	}
}

func TestRankOrdersByTotalThenTieBreak(t *testing.T) {
	e := New(testSubjects())
	students := []Student{
		{ID: "S2", Scores: scores(0, 70, 90, 0, 0), PreferredTracks: []string{"X"}},
		{ID: "S1", Scores: scores(0, 80, 90, 0, 0), PreferredTracks: []string{"X"}},
		{ID: "S3", Scores: scores(0, 0, 0, 0, 0)},
	}
	ranked := e.Rank(students)
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	if !reflect.DeepEqual(ids, []string{"S1", "S2", "S3"}) {
		t.Fatalf("order = %v, want [S1 S2 S3]", ids)
	}
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Fatalf("rank[%d] = %d, want %d", i, r.Rank, i+1)
		}
	}
}

func TestRankTieBreakPriority(t *testing.T) {
	// Same total. Science splits first; with science tied, math decides;
	// english/thai/social follow in that order.
	e := New(testSubjects())
	students := []Student{
		{ID: "math-low", Scores: scores(50, 10, 70, 20, 0)},  // total 150
		{ID: "math-high", Scores: scores(40, 20, 70, 20, 0)}, // total 150
		{ID: "science-high", Scores: scores(0, 0, 80, 70, 0)},
	}
	ranked := e.Rank(students)
	ids := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	if !reflect.DeepEqual(ids, []string{"science-high", "math-high", "math-low"}) {
		t.Fatalf("order = %v", ids)
	}
}

func TestRankExactTiesAreStableAndDense(t *testing.T) {
	// Two identical students: ranks must be distinct consecutive positions
	// (positional ranking, not shared competition rank) and the pairing must
	// follow input order on every run.
	e := New(testSubjects())
	students := []Student{
		{ID: "A", Scores: scores(50, 50, 50, 50, 50)},
		{ID: "B", Scores: scores(50, 50, 50, 50, 50)},
	}
	for i := 0; i < 10; i++ {
		ranked := e.Rank(students)
		if ranked[0].ID != "A" || ranked[1].ID != "B" {
			t.Fatalf("run %d: tie order = [%s %s], want [A B]", i, ranked[0].ID, ranked[1].ID)
		}
		if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
			t.Fatalf("run %d: ranks = [%d %d], want [1 2]", i, ranked[0].Rank, ranked[1].Rank)
		}
	}
}

func TestRankEmptyInput(t *testing.T) {
	e := New(testSubjects())
	if got := e.Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	e := New(testSubjects())
	students := []Student{
		{ID: "low", Scores: scores(0, 0, 10, 0, 0)},
		{ID: "high", Scores: scores(0, 0, 90, 0, 0)},
	}
	_ = e.Rank(students)
	if students[0].ID != "low" || students[1].ID != "high" {
		t.Fatalf("input slice reordered: %v %v", students[0].ID, students[1].ID)
	}
}

func TestAllocateScenarioContestedSeat(t *testing.T) {
	// spec scenario: equal science, math splits; single seat goes to the
	// higher-ranked student.
	e := New(testSubjects())
	students := []Student{
		{ID: "S2", Scores: scores(0, 70, 90, 0, 0), PreferredTracks: []string{"X"}},
		{ID: "S1", Scores: scores(0, 80, 90, 0, 0), PreferredTracks: []string{"X"}},
	}
	res := e.Place(students, []Track{{Name: "X", Quota: 1}})
	if res[0].ID != "S1" || res[0].QualifiedStream != "X" {
		t.Fatalf("rank 1 = %s stream %q, want S1/X", res[0].ID, res[0].QualifiedStream)
	}
	if res[1].ID != "S2" || res[1].QualifiedStream != "" {
		t.Fatalf("rank 2 = %s stream %q, want S2 unassigned", res[1].ID, res[1].QualifiedStream)
	}
}

func TestAllocateEmptyPreferenceList(t *testing.T) {
	e := New(testSubjects())
	res := e.Place(
		[]Student{{ID: "S1", Scores: scores(10, 10, 10, 10, 10)}},
		[]Track{{Name: "X", Quota: 5}},
	)
	if res[0].Rank != 1 || res[0].QualifiedStream != "" {
		t.Fatalf("got rank %d stream %q, want 1/unassigned", res[0].Rank, res[0].QualifiedStream)
	}
}

func TestAllocateUnknownTrackName(t *testing.T) {
	// A preference naming no configured track is skipped, not an error, and
	// does not fall through to tracks the student never asked for.
	e := New(testSubjects())
	res := e.Place(
		[]Student{{ID: "S1", Scores: scores(10, 10, 10, 10, 10), PreferredTracks: []string{"ghost"}}},
		[]Track{{Name: "X", Quota: 5}},
	)
	if res[0].QualifiedStream != "" {
		t.Fatalf("stream = %q, want unassigned", res[0].QualifiedStream)
	}
}

func TestAllocateZeroAndNegativeQuota(t *testing.T) {
	e := New(testSubjects())
	students := []Student{
		{ID: "S1", Scores: scores(0, 0, 90, 0, 0), PreferredTracks: []string{"closed", "neg", "open"}},
		{ID: "S2", Scores: scores(0, 0, 80, 0, 0), PreferredTracks: []string{"closed"}},
	}
	res := e.Place(students, []Track{
		{Name: "closed", Quota: 0},
		{Name: "neg", Quota: -3},
		{Name: "open", Quota: 1},
	})
	if res[0].QualifiedStream != "open" {
		t.Fatalf("S1 stream = %q, want open", res[0].QualifiedStream)
	}
	if res[1].QualifiedStream != "" {
		t.Fatalf("S2 stream = %q, want unassigned", res[1].QualifiedStream)
	}
}

func TestAllocateWaterfallSecondChoice(t *testing.T) {
	e := New(testSubjects())
	students := []Student{
		{ID: "S1", Scores: scores(0, 0, 90, 0, 0), PreferredTracks: []string{"sci"}},
		{ID: "S2", Scores: scores(0, 0, 80, 0, 0), PreferredTracks: []string{"sci", "arts"}},
	}
	res := e.Place(students, []Track{{Name: "sci", Quota: 1}, {Name: "arts", Quota: 1}})
	if res[0].QualifiedStream != "sci" || res[1].QualifiedStream != "arts" {
		t.Fatalf("streams = [%q %q], want [sci arts]", res[0].QualifiedStream, res[1].QualifiedStream)
	}
}

func TestPlaceInvariants(t *testing.T) {
	e := New(testSubjects())
	students := []Student{
		{ID: "a", Scores: scores(55, 60, 70, 40, 30), PreferredTracks: []string{"sci", "lang"}},
		{ID: "b", Scores: scores(55, 60, 70, 40, 30), PreferredTracks: []string{"sci", "lang"}},
		{ID: "c", Scores: scores(90, 10, 70, 40, 45), PreferredTracks: []string{"lang"}},
		{ID: "d", Scores: scores(20, 95, 88, 61, 30), PreferredTracks: []string{"sci"}},
		{ID: "e", Scores: scores(20, 95, 88, 61, 30)},
		{ID: "f", Scores: map[string]float64{"math": 33}, PreferredTracks: []string{"nope", "lang"}},
	}
	tracks := []Track{{Name: "sci", Quota: 2}, {Name: "lang", Quota: 1}}

	first := e.Place(students, tracks)

	// Determinism across repeated invocations.
	for i := 0; i < 5; i++ {
		if again := e.Place(students, tracks); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}

	// Ranks are a permutation of 1..N.
	seen := map[int]bool{}
	for _, r := range first {
		if r.Rank < 1 || r.Rank > len(first) || seen[r.Rank] {
			t.Fatalf("bad rank %d for %s", r.Rank, r.ID)
		}
		seen[r.Rank] = true
	}

	// Total is the exact subject sum, capacity holds, assignments come from
	// the student's own list.
	fill := map[string]int{}
	for _, r := range first {
		if want := e.TotalScore(r.Scores); r.TotalScore != want {
			t.Fatalf("%s total = %v, want %v", r.ID, r.TotalScore, want)
		}
		if r.QualifiedStream == "" {
			continue
		}
		fill[r.QualifiedStream]++
		found := false
		for _, p := range r.PreferredTracks {
			if p == r.QualifiedStream {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s assigned %q outside own preferences %v", r.ID, r.QualifiedStream, r.PreferredTracks)
		}
	}
	for _, tr := range tracks {
		if fill[tr.Name] > tr.Quota {
			t.Fatalf("track %s over quota: %d > %d", tr.Name, fill[tr.Name], tr.Quota)
		}
	}
}

func TestCustomTieBreakOrder(t *testing.T) {
	e := New(testSubjects(), WithTieBreakOrder("thai"))
	students := []Student{
		{ID: "thai-low", Scores: scores(10, 90, 0, 0, 0)},
		{ID: "thai-high", Scores: scores(90, 10, 0, 0, 0)},
	}
	ranked := e.Rank(students)
	if ranked[0].ID != "thai-high" {
		t.Fatalf("rank 1 = %s, want thai-high", ranked[0].ID)
	}
}
