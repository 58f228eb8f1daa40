package placement

// Subject is one configured exam subject. The engine iterates whatever
// subjects it is given; keys are not hardcoded anywhere in the ranking path.
type Subject struct {
	Key      string  `json:"key"`
	MaxScore float64 `json:"max_score"`
	Position int     `json:"position,omitempty"`
}

// Student is one candidate in a placement run. Title and the name fields are
// display-only and opaque to the engine. Scores maps subject key to the raw
// exam score; a missing key counts as zero. PreferredTracks is ordered,
// first choice first, and may be shorter than the track set or empty.
type Student struct {
	ID              string             `json:"id"`
	Title           string             `json:"title,omitempty"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Scores          map[string]float64 `json:"scores"`
	PreferredTracks []string           `json:"preferred_tracks"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// Track is a study track with an admission quota. Quota below zero is
// tolerated and treated as zero by the allocator.
type Track struct {
	Name  string `json:"name"`
	Quota int    `json:"quota"`
}

// Result is one student's placement outcome. Rank is positional and dense:
// students that tie on every comparator key still get distinct consecutive
// numbers (1..N is always a permutation), not a shared competition rank.
// QualifiedStream is the allocated track name, or "" when no preferred track
// had capacity left.
type Result struct {
	Student
	TotalScore      float64 `json:"total_score"`
	Rank            int     `json:"rank"`
	QualifiedStream string  `json:"qualified_stream,omitempty"`
}
