package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thanitrachkul/NPSS/internal/placement"
)

func PutStudentHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s placement.Student
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if s.FirstName == "" || s.LastName == "" {
			http.Error(w, "first_name and last_name required", 400)
			return
		}
		saved, err := store.PutStudent(r.Context(), s)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(saved)
	}
}

func GetStudentHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "studentID")
		s, err := store.GetStudent(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		_ = json.NewEncoder(w).Encode(s)
	}
}

func ListStudentsHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := placement.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 100),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := store.ListStudents(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func DeleteStudentHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "studentID")
		if err := store.DeleteStudent(r.Context(), id); err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// BulkUpsertStudentsHandler accepts either a multipart file= (CSV or JSON
// array) or a raw JSON array in the body, mirroring the term-start flow where
// the registrar uploads the whole cohort from a spreadsheet.
func BulkUpsertStudentsHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []placement.Student
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", 400)
				return
			}
			defer f.Close()
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", 400)
				return
			}
			if s, ok := f.(io.Seeker); ok {
				_, _ = s.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", 400)
					return
				}
			} else {
				rs, err := parseStudentCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), 400)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", 400)
				return
			}
		}
		if len(rows) == 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := store.BulkUpsertStudents(r.Context(), rows)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"inserted": ins, "updated": upd})
	}
}

// parseStudentCSV reads cohort spreadsheets. Fixed columns are id, title,
// first_name, last_name and preferred_tracks (choices separated by "|", first
// choice first); every other numeric column is taken as a subject score under
// that header's key.
func parseStudentCSV(r io.Reader) ([]placement.Student, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"first_name", "last_name"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	fixed := map[string]bool{
		"id": true, "title": true, "first_name": true, "last_name": true, "preferred_tracks": true,
	}
	var rows []placement.Student
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s := placement.Student{
			FirstName: rec[idx["first_name"]],
			LastName:  rec[idx["last_name"]],
			Scores:    map[string]float64{},
		}
		if i, ok := idx["id"]; ok {
			s.ID = strings.TrimSpace(rec[i])
		}
		if i, ok := idx["title"]; ok {
			s.Title = rec[i]
		}
		if i, ok := idx["preferred_tracks"]; ok {
			for _, p := range strings.Split(rec[i], "|") {
				if p = strings.TrimSpace(p); p != "" {
					s.PreferredTracks = append(s.PreferredTracks, p)
				}
			}
		}
		for key, i := range idx {
			if fixed[key] {
				continue
			}
			// Malformed cells degrade to zero rather than rejecting the row.
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				v = 0
			}
			s.Scores[key] = v
		}
		rows = append(rows, s)
	}
	return rows, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
