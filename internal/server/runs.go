// internal/server/runs.go
package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	apperrors "propsim/internal/common/errors"
	"propsim/internal/models"
)

// runScenario executes the scenario's stored params and records the
// outcome. The response carries the persisted run row plus the full month
// series it was reduced from.
func (s *Server) runScenario(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.RunScenario(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_scenario", "scenario", id, err))
		return
	}
	if sc == nil {
		s.fail(w, r, notFound("scenario", id))
		return
	}

	runs, err := s.repo.ListRuns(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("list_runs", "scenario", id, err))
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// runCSV streams the month-series artifact recorded for a run. A run
// whose export failed has no artifact and reports 404.
func (s *Server) runCSV(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	run, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, r, storageErr("get_run", "run", id, err))
		return
	}
	if run == nil {
		s.fail(w, r, notFound("run", id))
		return
	}
	if run.CSVPath == nil {
		s.fail(w, r, notFound("run artifact", id))
		return
	}

	f, err := os.Open(*run.CSVPath)
	if err != nil {
		// The row says an artifact exists but the file is gone.
		s.fail(w, r, apperrors.NewInternalError(fmt.Errorf("open run artifact: %w", err)))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(*run.CSVPath)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
