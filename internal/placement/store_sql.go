package placement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutStudent(ctx context.Context, st Student) (Student, error) {
	now := time.Now().Unix()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Scores == nil {
		st.Scores = map[string]float64{}
	}
	sj, err := json.Marshal(st.Scores)
	if err != nil {
		return Student{}, err
	}
	pj, err := json.Marshal(st.PreferredTracks)
	if err != nil {
		return Student{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO students (id,title,first_name,last_name,scores_json,prefs_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name, scores_json=EXCLUDED.scores_json,
			prefs_json=EXCLUDED.prefs_json, updated_at=EXCLUDED.updated_at, deleted_at=NULL`,
		st.ID, st.Title, st.FirstName, st.LastName, string(sj), string(pj), now)
	if err != nil {
		return Student{}, err
	}
	return s.GetStudent(ctx, st.ID)
}

func (s *SQLStore) GetStudent(ctx context.Context, id string) (Student, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,first_name,last_name,scores_json,prefs_json,created_at,updated_at
		FROM students WHERE id=$1 AND deleted_at IS NULL`, id)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, errors.New("student not found")
	}
	return st, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanStudent(r rowScanner) (Student, error) {
	var st Student
	var sj, pj string
	if err := r.Scan(&st.ID, &st.Title, &st.FirstName, &st.LastName, &sj, &pj, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return Student{}, err
	}
	if err := json.Unmarshal([]byte(sj), &st.Scores); err != nil {
		st.Scores = map[string]float64{}
	}
	if err := json.Unmarshal([]byte(pj), &st.PreferredTracks); err != nil {
		st.PreferredTracks = nil
	}
	return st, nil
}

func (s *SQLStore) ListStudents(ctx context.Context, opts ListOpts) ([]Student, error) {
	q := `SELECT id,title,first_name,last_name,scores_json,prefs_json,created_at,updated_at
		FROM students WHERE deleted_at IS NULL`
	args := []any{}
	if opts.Q != "" {
		q += ` AND (id LIKE $1 OR first_name LIKE $1 OR last_name LIKE $1)`
		args = append(args, "%"+opts.Q+"%")
	}
	// created_at,id keeps the cohort in enrollment order, which is what the
	// ranker's stable tie fallback keys off.
	q += ` ORDER BY created_at, id`
	if opts.Limit > 0 {
		q += ` LIMIT ` + strconv.Itoa(opts.Limit)
	}
	if opts.Offset > 0 {
		q += ` OFFSET ` + strconv.Itoa(opts.Offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteStudent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE students SET deleted_at=$1 WHERE id=$2 AND deleted_at IS NULL`,
		time.Now().Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("student not found")
	}
	return nil
}

func (s *SQLStore) BulkUpsertStudents(ctx context.Context, rows []Student) (inserted, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, st := range rows {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if st.Scores == nil {
			st.Scores = map[string]float64{}
		}
		var sj, pj []byte
		if sj, err = json.Marshal(st.Scores); err != nil {
			return
		}
		if pj, err = json.Marshal(st.PreferredTracks); err != nil {
			return
		}
		var exists bool
		scanErr := tx.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id=$1`, st.ID).Scan(new(int))
		switch {
		case scanErr == nil:
			exists = true
		case errors.Is(scanErr, sql.ErrNoRows):
		default:
			err = scanErr
			return
		}
		if exists {
			_, err = tx.ExecContext(ctx, `UPDATE students SET title=$1, first_name=$2, last_name=$3,
				scores_json=$4, prefs_json=$5, updated_at=$6, deleted_at=NULL WHERE id=$7`,
				st.Title, st.FirstName, st.LastName, string(sj), string(pj), now, st.ID)
			if err != nil {
				return
			}
			updated++
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO students (id,title,first_name,last_name,scores_json,prefs_json,created_at,updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
				st.ID, st.Title, st.FirstName, st.LastName, string(sj), string(pj), now)
			if err != nil {
				return
			}
			inserted++
		}
	}
	return
}

func (s *SQLStore) PutTrack(ctx context.Context, t Track) error {
	if t.Name == "" {
		return errors.New("track name required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tracks (name,quota) VALUES ($1,$2)
		ON CONFLICT (name) DO UPDATE SET quota=EXCLUDED.quota`, t.Name, t.Quota)
	return err
}

func (s *SQLStore) ListTracks(ctx context.Context) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,quota FROM tracks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Track{}
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.Name, &t.Quota); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteTrack(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE name=$1`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("track not found")
	}
	return nil
}

func (s *SQLStore) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key,max_score,position FROM subjects ORDER BY position, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subject{}
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.Key, &sub.MaxScore, &sub.Position); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return DefaultSubjects(), nil
	}
	return out, nil
}

func (s *SQLStore) ReplaceSubjects(ctx context.Context, subjects []Subject) error {
	if len(subjects) == 0 {
		return errors.New("at least one subject required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM subjects`); err != nil {
		return err
	}
	for i, sub := range subjects {
		if sub.Key == "" {
			err = errors.New("subject key required")
			return err
		}
		pos := sub.Position
		if pos == 0 {
			pos = i + 1
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO subjects (key,max_score,position) VALUES ($1,$2,$3)`,
			sub.Key, sub.MaxScore, pos); err != nil {
			return err
		}
	}
	return err
}
