package placement

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.RWMutex
	students map[string]Student
	tracks   map[string]Track
	subjects []Subject
}

// NewInMemoryStore backs the Store interface with maps; used in tests and
// single-session dev runs.
func NewInMemoryStore() Store {
	return &memoryStore{
		students: map[string]Student{},
		tracks:   map[string]Track{},
		subjects: DefaultSubjects(),
	}
}

// DefaultSubjects is the stock five-subject exam configuration.
func DefaultSubjects() []Subject {
	return []Subject{
		{Key: "thai", MaxScore: 100, Position: 1},
		{Key: "math", MaxScore: 100, Position: 2},
		{Key: "science", MaxScore: 100, Position: 3},
		{Key: "english", MaxScore: 100, Position: 4},
		{Key: "social", MaxScore: 100, Position: 5},
	}
}

func (m *memoryStore) PutStudent(_ context.Context, s Student) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putStudentLocked(s), nil
}

func (m *memoryStore) putStudentLocked(s Student) Student {
	now := time.Now().Unix()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if prev, ok := m.students[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Scores == nil {
		s.Scores = map[string]float64{}
	}
	m.students[s.ID] = s
	return s
}

func (m *memoryStore) GetStudent(_ context.Context, id string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, errors.New("student not found")
	}
	return s, nil
}

func (m *memoryStore) ListStudents(_ context.Context, opts ListOpts) ([]Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Student, 0, len(m.students))
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	for _, s := range m.students {
		if q != "" &&
			!strings.Contains(strings.ToLower(s.ID), q) &&
			!strings.Contains(strings.ToLower(s.FirstName), q) &&
			!strings.Contains(strings.ToLower(s.LastName), q) {
			continue
		}
		out = append(out, s)
	}
	// Insertion order, same as the SQL store's ORDER BY created_at, id.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func page(s []Student, limit, offset int) []Student {
	if offset > len(s) {
		offset = len(s)
	}
	s = s[offset:]
	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}
	return s
}

func (m *memoryStore) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return errors.New("student not found")
	}
	delete(m.students, id)
	return nil
}

func (m *memoryStore) BulkUpsertStudents(_ context.Context, rows []Student) (inserted, updated int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range rows {
		if s.ID != "" {
			if _, ok := m.students[s.ID]; ok {
				updated++
			} else {
				inserted++
			}
		} else {
			inserted++
		}
		m.putStudentLocked(s)
	}
	return inserted, updated, nil
}

func (m *memoryStore) PutTrack(_ context.Context, t Track) error {
	if t.Name == "" {
		return errors.New("track name required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[t.Name] = t
	return nil
}

func (m *memoryStore) ListTracks(_ context.Context) ([]Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) DeleteTrack(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracks[name]; !ok {
		return errors.New("track not found")
	}
	delete(m.tracks, name)
	return nil
}

func (m *memoryStore) ListSubjects(_ context.Context) ([]Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Subject, len(m.subjects))
	copy(out, m.subjects)
	return out, nil
}

func (m *memoryStore) ReplaceSubjects(_ context.Context, subjects []Subject) error {
	if len(subjects) == 0 {
		return errors.New("at least one subject required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = make([]Subject, len(subjects))
	copy(m.subjects, subjects)
	sort.SliceStable(m.subjects, func(i, j int) bool { return m.subjects[i].Position < m.subjects[j].Position })
	return nil
}
