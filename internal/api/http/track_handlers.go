package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thanitrachkul/NPSS/internal/placement"
)

func PutTrackHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "trackName")
		var req struct {
			Quota int `json:"quota"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Quota < 0 {
			http.Error(w, "quota must be >= 0", 400)
			return
		}
		t := placement.Track{Name: name, Quota: req.Quota}
		if err := store.PutTrack(r.Context(), t); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

func ListTracksHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTracks(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func DeleteTrackHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "trackName")
		if err := store.DeleteTrack(r.Context(), name); err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListSubjectsHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListSubjects(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func ReplaceSubjectsHandler(store placement.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var subjects []placement.Subject
		if err := json.NewDecoder(r.Body).Decode(&subjects); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := store.ReplaceSubjects(r.Context(), subjects); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(subjects)
	}
}
