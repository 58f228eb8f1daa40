package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thanitrachkul/NPSS/internal/audit"
	"github.com/thanitrachkul/NPSS/internal/placement"
	"github.com/thanitrachkul/NPSS/internal/rbac"
)

// RunPlacementHandler computes a fresh placement, archives its CSV snapshot
// and logs the run.
func RunPlacementHandler(svc *placement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, results, err := svc.Run(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"summary": sum,
			"results": results,
		})
	}
}

// GetResultsHandler recomputes the current standings on every request; there
// is no stored ranking to go stale. Students only see their own row.
func GetResultsHandler(svc *placement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, _, err := svc.Compute(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" {
			sub := rbac.SubjectFromContext(r.Context())
			own := []placement.Result{}
			for _, res := range results {
				if res.ID == sub {
					own = append(own, res)
				}
			}
			results = own
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}
}

// ExportPlacementHandler streams the current standings as CSV.
func ExportPlacementHandler(svc *placement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, subjects, err := svc.Compute(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="placement.csv"`)
		if err := placement.WriteCSV(w, subjects, results); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}
}

// BlobGetter is satisfied by storage.FSStore.
type BlobGetter interface {
	Get(key string) (io.ReadCloser, error)
}

// GetRunSnapshotHandler serves the archived CSV of a past run.
func GetRunSnapshotHandler(blobs BlobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		rc, err := blobs.Get("runs/" + runID + ".csv")
		if err != nil {
			http.Error(w, "run not found", 404)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.Copy(w, rc)
	}
}

// ListRunsHandler lists recent placement runs from the audit log.
func ListRunsHandler(log *audit.RunLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		events, err := log.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	}
}
