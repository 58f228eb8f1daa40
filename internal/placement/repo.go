package placement

import "context"

type ListOpts struct {
	Q      string // matches id, first or last name
	Limit  int
	Offset int
}

// Store is the persistence boundary the HTTP layer and the placement service
// talk to. The engine itself never sees it; callers load full cohort
// snapshots through Store and hand plain slices to the engine.
type Store interface {
	PutStudent(ctx context.Context, s Student) (Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context, opts ListOpts) ([]Student, error)
	DeleteStudent(ctx context.Context, id string) error // soft delete
	BulkUpsertStudents(ctx context.Context, rows []Student) (inserted, updated int, err error)

	PutTrack(ctx context.Context, t Track) error
	ListTracks(ctx context.Context) ([]Track, error)
	DeleteTrack(ctx context.Context, name string) error

	ListSubjects(ctx context.Context) ([]Subject, error)
	ReplaceSubjects(ctx context.Context, subjects []Subject) error
}
