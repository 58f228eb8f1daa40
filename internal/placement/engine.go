package placement

import "sort"

// DefaultTieBreakOrder is the subject priority used to split students with
// equal totals: compare science first, then math, and so on down the list.
// Fixed by school policy today; kept as a named list so it can move into
// configuration without touching the comparator.
var DefaultTieBreakOrder = []string{"science", "math", "english", "thai", "social"}

// Engine ranks students and allocates them to tracks. It holds configuration
// only (subject set, tie-break order); every call takes a fresh snapshot of
// its inputs, mutates nothing it was given, and keeps no state between calls.
type Engine struct {
	subjects []Subject
	tieBreak []string
}

type Option func(*Engine)

// WithTieBreakOrder overrides the tie-break subject priority.
func WithTieBreakOrder(keys ...string) Option {
	return func(e *Engine) { e.tieBreak = keys }
}

func New(subjects []Subject, opts ...Option) *Engine {
	e := &Engine{subjects: subjects, tieBreak: DefaultTieBreakOrder}
	for _, o := range opts {
		o(e)
	}
	return e
}

// TotalScore sums the configured subject scores. Missing keys count as zero.
func (e *Engine) TotalScore(scores map[string]float64) float64 {
	var total float64
	for _, s := range e.subjects {
		total += scores[s.Key]
	}
	return total
}

// Rank returns a new slice annotated with totals and dense 1-based ranks,
// best student first. Ordering: total descending, then each tie-break subject
// descending, then original input order (stable sort), so the same input
// sequence always produces the same ranking.
func (e *Engine) Rank(students []Student) []Result {
	out := make([]Result, len(students))
	for i, s := range students {
		out[i] = Result{Student: s, TotalScore: e.TotalScore(s.Scores)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		for _, key := range e.tieBreak {
			if a.Scores[key] != b.Scores[key] {
				return a.Scores[key] > b.Scores[key]
			}
		}
		return false
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Allocate walks the ranked students best-first and gives each one the first
// track on their preference list that still has room. Quota is consumed in
// rank order, so a contested seat always goes to the higher-ranked student.
// Preference names that match no track are skipped; a student whose whole
// list is full (or empty) is left unassigned. The remaining-quota counters
// live only for the duration of this call.
func (e *Engine) Allocate(ranked []Result, tracks []Track) []Result {
	remaining := make(map[string]int, len(tracks))
	for _, t := range tracks {
		q := t.Quota
		if q < 0 {
			q = 0
		}
		remaining[t.Name] = q
	}
	out := make([]Result, len(ranked))
	copy(out, ranked)
	for i := range out {
		out[i].QualifiedStream = ""
		for _, pref := range out[i].PreferredTracks {
			left, ok := remaining[pref]
			if !ok {
				continue
			}
			if left > 0 {
				out[i].QualifiedStream = pref
				remaining[pref] = left - 1
				break
			}
		}
	}
	return out
}

// Place runs Rank then Allocate in one pass over a snapshot of the cohort.
func (e *Engine) Place(students []Student, tracks []Track) []Result {
	return e.Allocate(e.Rank(students), tracks)
}
